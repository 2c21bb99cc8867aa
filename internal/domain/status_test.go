package domain

import "testing"

func TestNormalizeStatus_KnownTable(t *testing.T) {
	cases := []struct {
		in   string
		want PaymentStatus
	}{
		{"pending", StatusPending},
		{"approved", StatusApproved},
		{"authorized", StatusApproved},
		{"in_process", StatusPending},
		{"in_mediation", StatusPending},
		{"rejected", StatusRejected},
		{"cancelled", StatusCancelled},
		{"canceled", StatusCancelled},
		{"refunded", StatusRefunded},
		{"charged_back", StatusChargedBack},
	}

	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			if got := NormalizeStatus(tc.in); got != tc.want {
				t.Errorf("NormalizeStatus(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNormalizeStatus_CaseInsensitive(t *testing.T) {
	if NormalizeStatus("APPROVED") != NormalizeStatus("approved") {
		t.Error("expected NormalizeStatus to be case-insensitive")
	}
	if got := NormalizeStatus("  Charged_Back "); got != StatusChargedBack {
		t.Errorf("expected charged_back, got %q", got)
	}
}

func TestNormalizeStatus_UnknownInput(t *testing.T) {
	for _, in := range []string{"", "   ", "whatever", "approved-ish", "4xx"} {
		if got := NormalizeStatus(in); got != StatusUnknown {
			t.Errorf("NormalizeStatus(%q) = %q, want %q", in, got, StatusUnknown)
		}
	}
}

func TestFrequencyValid(t *testing.T) {
	for _, f := range []Frequency{FrequencyMonthly, FrequencyWeekly, FrequencyYearly} {
		if !f.Valid() {
			t.Errorf("expected %q to be valid", f)
		}
	}
	if Frequency("daily").Valid() {
		t.Error("expected daily to be invalid")
	}
	if Frequency("").Valid() {
		t.Error("expected empty frequency to be invalid")
	}
}
