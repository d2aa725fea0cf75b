package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// TestNewCollector_ReturnsNonNil はCollectorが正常に生成されることを検証する。
func TestNewCollector_ReturnsNonNil(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	if c == nil {
		t.Fatal("expected non-nil Collector")
	}
}

// counterValue はラベル付きカウンタの値を取得するテストヘルパー。
func counterValue(t *testing.T, reg *prometheus.Registry, name, labelName, labelValue string) float64 {
	t.Helper()

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	for _, mf := range metrics {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if labelName == "" {
				return m.GetCounter().GetValue()
			}
			for _, l := range m.GetLabel() {
				if l.GetName() == labelName && l.GetValue() == labelValue {
					return m.GetCounter().GetValue()
				}
			}
		}
	}

	t.Fatalf("metric %s{%s=%q} not found", name, labelName, labelValue)
	return 0
}

// TestRecordAuthDecision_IncrementsCounter は判定結果別カウンタが増加することを検証する。
func TestRecordAuthDecision_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordAuthDecision(AuthResultAdmitted)
	c.RecordAuthDecision(AuthResultAdmitted)
	c.RecordAuthDecision(AuthResultForbidden)

	if got := counterValue(t, reg, "foodatlas_auth_decisions_total", "result", AuthResultAdmitted); got != 2 {
		t.Errorf("auth_decisions_total{result=admitted} = %v, want 2", got)
	}
	if got := counterValue(t, reg, "foodatlas_auth_decisions_total", "result", AuthResultForbidden); got != 1 {
		t.Errorf("auth_decisions_total{result=forbidden} = %v, want 1", got)
	}
}

// TestRecordGuardRejection_IncrementsCounter はガード拒否カウンタが理由別に増加することを検証する。
func TestRecordGuardRejection_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordGuardRejection("missing_region")
	c.RecordGuardRejection("missing_region")
	c.RecordGuardRejection("region_has_provinces")

	if got := counterValue(t, reg, "foodatlas_guard_rejections_total", "reason", "missing_region"); got != 2 {
		t.Errorf("guard_rejections_total{reason=missing_region} = %v, want 2", got)
	}
	if got := counterValue(t, reg, "foodatlas_guard_rejections_total", "reason", "region_has_provinces"); got != 1 {
		t.Errorf("guard_rejections_total{reason=region_has_provinces} = %v, want 1", got)
	}
}

// TestRecordHTTPStatus_IncrementsCounter はステータスコード別カウンタが増加することを検証する。
func TestRecordHTTPStatus_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(403)
	c.RecordHTTPStatus(403)

	if got := counterValue(t, reg, "foodatlas_http_status_total", "status_code", "403"); got != 2 {
		t.Errorf("http_status_total{status_code=403} = %v, want 2", got)
	}
}

// TestRecordVerifyLatency_ObservesHistogram はトークン検証レイテンシが記録されることを検証する。
func TestRecordVerifyLatency_ObservesHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordVerifyLatency(5 * time.Millisecond)
	c.RecordVerifyLatency(10 * time.Millisecond)

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	found := false
	for _, mf := range metrics {
		if mf.GetName() == "foodatlas_token_verify_seconds" {
			found = true
			count := mf.GetMetric()[0].GetHistogram().GetSampleCount()
			if count != 2 {
				t.Errorf("verify latency sample count = %d, want 2", count)
			}
		}
	}
	if !found {
		t.Error("foodatlas_token_verify_seconds metric not found")
	}
}

// TestRecordImageUpload_IncrementsCounter はアップロードカウンタが増加することを検証する。
func TestRecordImageUpload_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordImageUpload()

	if got := counterValue(t, reg, "foodatlas_image_uploads_total", "", ""); got != 1 {
		t.Errorf("image_uploads_total = %v, want 1", got)
	}
}
