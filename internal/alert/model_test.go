package alert

import (
	"testing"
	"time"
)

func TestSeverity_Rank(t *testing.T) {
	t.Parallel()

	order := []Severity{SeverityOk, SeverityInfo, SeverityWarning, SeverityCritical}
	for i := 1; i < len(order); i++ {
		if order[i].Rank() <= order[i-1].Rank() {
			t.Errorf("Rank(%s) = %d, want > Rank(%s) = %d",
				order[i], order[i].Rank(), order[i-1], order[i-1].Rank())
		}
	}
}

func TestSeverity_RankUnknown(t *testing.T) {
	t.Parallel()

	if r := Severity("bogus").Rank(); r >= SeverityOk.Rank() {
		t.Errorf("unknown severity rank = %d, want below ok", r)
	}
	if Severity("bogus").Valid() {
		t.Error("unknown severity reported valid")
	}
}

func TestLess_SeverityFirst(t *testing.T) {
	t.Parallel()

	now := time.Now()
	older := &Alert{Severity: SeverityCritical, CreatedAt: now.Add(-time.Hour)}
	newer := &Alert{Severity: SeverityWarning, CreatedAt: now}

	if !Less(older, newer) {
		t.Error("critical alert should order before newer warning alert")
	}
	if Less(newer, older) {
		t.Error("warning alert should not order before critical alert")
	}
}

func TestLess_CreatedAtTieBreak(t *testing.T) {
	t.Parallel()

	now := time.Now()
	older := &Alert{Severity: SeverityWarning, CreatedAt: now.Add(-time.Minute)}
	newer := &Alert{Severity: SeverityWarning, CreatedAt: now}

	if !Less(newer, older) {
		t.Error("more recent alert should order first on equal severity")
	}
}

func TestFilter_Normalize(t *testing.T) {
	t.Parallel()

	f := Filter{}.Normalize()
	if f.Page != DefaultPage {
		t.Errorf("Page = %d, want %d", f.Page, DefaultPage)
	}
	if f.PageSize != DefaultPageSize {
		t.Errorf("PageSize = %d, want %d", f.PageSize, DefaultPageSize)
	}

	f = Filter{Page: 3, PageSize: 10}.Normalize()
	if f.Page != 3 || f.PageSize != 10 {
		t.Errorf("Normalize clobbered explicit paging: page=%d size=%d", f.Page, f.PageSize)
	}
}

func TestToView_RoundsAllFields(t *testing.T) {
	t.Parallel()

	ack := time.Now()
	a := &Alert{
		ID:             "a-1",
		TenantID:       "t-1",
		HubID:          "hub-1",
		NodeID:         "node-1",
		TypeCode:       "mold_risk",
		Severity:       SeverityWarning,
		Message:        "High humidity",
		Recommendation: "Ventilate",
		Source:         SourceCloud,
		CreatedAt:      ack.Add(-time.Hour),
		AcknowledgedAt: &ack,
		IsActive:       false,
	}

	v := ToView(a)
	if v.ID != a.ID || v.TenantID != a.TenantID || v.HubID != a.HubID || v.NodeID != a.NodeID {
		t.Error("identity fields not carried to view")
	}
	if v.TypeCode != a.TypeCode || v.Severity != a.Severity || v.Source != a.Source {
		t.Error("classification fields not carried to view")
	}
	if v.Message != a.Message || v.Recommendation != a.Recommendation {
		t.Error("text fields not carried to view")
	}
	if v.AcknowledgedAt == nil || !v.AcknowledgedAt.Equal(ack) || v.IsActive {
		t.Error("acknowledgement state not carried to view")
	}
}

func TestToView_Nil(t *testing.T) {
	t.Parallel()

	if ToView(nil) != nil {
		t.Error("ToView(nil) should be nil")
	}
}
