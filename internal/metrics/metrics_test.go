package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func gather(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() == name {
			return mf
		}
	}
	t.Fatalf("metric %s not found", name)
	return nil
}

func TestRecordSuggestion_LabelsByState(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordSuggestion("suggested")
	c.RecordSuggestion("suggested")
	c.RecordSuggestion("no_carpool")

	mf := gather(t, reg, "carpool_suggestions_total")
	got := map[string]float64{}
	for _, m := range mf.GetMetric() {
		got[m.GetLabel()[0].GetValue()] = m.GetCounter().GetValue()
	}
	if got["suggested"] != 2 || got["no_carpool"] != 1 {
		t.Errorf("suggestions = %v, want suggested=2 no_carpool=1", got)
	}
}

func TestRecordBalanceComputation(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordBalanceComputation(20 * time.Millisecond)

	if v := gather(t, reg, "carpool_balance_computations_total").GetMetric()[0].GetCounter().GetValue(); v != 1 {
		t.Errorf("balance_computations_total = %v, want 1", v)
	}
	if n := gather(t, reg, "carpool_balance_computation_seconds").GetMetric()[0].GetHistogram().GetSampleCount(); n != 1 {
		t.Errorf("sample count = %d, want 1", n)
	}
}

func TestRecordCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordDayFallbacks(3)
	c.RecordEntriesUpserted(4)
	c.RecordEntriesUpserted(1)

	if v := gather(t, reg, "carpool_day_parse_fallbacks_total").GetMetric()[0].GetCounter().GetValue(); v != 3 {
		t.Errorf("day_parse_fallbacks_total = %v, want 3", v)
	}
	if v := gather(t, reg, "carpool_entries_upserted_total").GetMetric()[0].GetCounter().GetValue(); v != 5 {
		t.Errorf("entries_upserted_total = %v, want 5", v)
	}
}

func TestHandler_ServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordEntriesUpserted(2)

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "carpool_entries_upserted_total 2") {
		t.Errorf("body missing upserted counter:\n%s", body)
	}
}
