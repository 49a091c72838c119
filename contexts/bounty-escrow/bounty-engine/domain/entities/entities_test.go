package entities

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestParseBalanceBounds(t *testing.T) {
	maxU128 := "340282366920938463463374607431768211455"
	if got := MustParseBalance(maxU128).String(); got != maxU128 {
		t.Fatalf("round trip lost precision: %s", got)
	}
	for _, raw := range []string{"", "-1", "+1", "1.5", "abc", "340282366920938463463374607431768211456"} {
		if _, err := ParseBalance(raw); err == nil {
			t.Fatalf("expected %q to be rejected", raw)
		}
	}
}

func TestBalanceArithmetic(t *testing.T) {
	a := NewBalance(10)
	b := NewBalance(3)

	sum, ok := a.Add(b)
	if !ok || sum.String() != "13" {
		t.Fatalf("add: %s %v", sum, ok)
	}
	if _, ok := b.Sub(a); ok {
		t.Fatalf("sub must report underflow")
	}
	if got := b.SaturatingSub(a); !got.IsZero() {
		t.Fatalf("saturating sub should floor at zero, got %s", got)
	}
	ceiling := MustParseBalance("340282366920938463463374607431768211455")
	if _, ok := ceiling.Add(NewBalance(1)); ok {
		t.Fatalf("add must report u128 overflow")
	}
	if !b.LessThan(a) || a.Cmp(b) <= 0 {
		t.Fatalf("comparison broken")
	}
}

func TestPercentFloor(t *testing.T) {
	tests := []struct {
		amount string
		pct    uint8
		want   string
	}{
		{"400", 1, "4"},
		{"99", 1, "0"},
		{"1000", 50, "500"},
		{"7", 100, "7"},
		{"340282366920938463463374607431768211455", 100, "340282366920938463463374607431768211455"},
		{"340282366920938463463374607431768211455", 1, "3402823669209384634633746074317682114"},
	}
	for _, tc := range tests {
		if got := MustParseBalance(tc.amount).PercentFloor(tc.pct).String(); got != tc.want {
			t.Fatalf("%s * %d%%: expected %s, got %s", tc.amount, tc.pct, tc.want, got)
		}
	}
}

func TestBalanceJSON(t *testing.T) {
	raw, err := json.Marshal(NewBalance(42))
	if err != nil || string(raw) != `"42"` {
		t.Fatalf("marshal: %s %v", raw, err)
	}
	var fromString, fromNumber Balance
	if err := json.Unmarshal([]byte(`"1000"`), &fromString); err != nil || fromString.String() != "1000" {
		t.Fatalf("unmarshal string: %v", err)
	}
	if err := json.Unmarshal([]byte(`1000`), &fromNumber); err != nil || fromNumber.String() != "1000" {
		t.Fatalf("unmarshal number: %v", err)
	}
	if err := json.Unmarshal([]byte(`"-5"`), &fromString); err == nil {
		t.Fatalf("negative balance accepted")
	}
}

func TestBalanceScan(t *testing.T) {
	var b Balance
	if err := b.Scan("1000.000"); err != nil || b.String() != "1000" {
		t.Fatalf("scan numeric text: %s %v", b, err)
	}
	if err := b.Scan([]byte("12")); err != nil || b.String() != "12" {
		t.Fatalf("scan bytes: %s %v", b, err)
	}
	if err := b.Scan("1.5"); err == nil {
		t.Fatalf("fractional value accepted")
	}
	if err := b.Scan(int64(-1)); err == nil {
		t.Fatalf("negative int accepted")
	}
	value, _ := NewBalance(9).Value()
	if value != "9" {
		t.Fatalf("driver value: %v", value)
	}
}

func TestAssetKeys(t *testing.T) {
	native := NativeAsset()
	if native.Key() != "native" || native.Token() != nil || !native.IsNative() {
		t.Fatalf("unexpected native asset: %+v", native)
	}
	token := "usdc.near"
	ft := AssetFromToken(&token)
	if ft.Key() != "ft:usdc.near" || *ft.Token() != token || ft.IsNative() {
		t.Fatalf("unexpected token asset: %+v", ft)
	}
	if AssetFromKey(ft.Key()) != ft || AssetFromKey("native") != native {
		t.Fatalf("key round trip broken")
	}
	blank := "  "
	if !AssetFromToken(&blank).IsNative() {
		t.Fatalf("blank token should mean native")
	}
}

func TestSubmissionStatusMachine(t *testing.T) {
	for _, status := range []SubmissionStatus{SubmissionStatusPending, SubmissionStatusUnderReview} {
		if !status.Reviewable() || status.IsTerminal() {
			t.Fatalf("%s should be reviewable", status)
		}
	}
	for _, status := range []SubmissionStatus{SubmissionStatusAccepted, SubmissionStatusRejected, SubmissionStatusDuplicate, SubmissionStatusInformative} {
		if status.Reviewable() || !status.IsTerminal() {
			t.Fatalf("%s should be terminal", status)
		}
	}
	if _, ok := ParseSubmissionStatus("Closed"); ok {
		t.Fatalf("unknown status parsed")
	}
	if status, ok := ParseSubmissionStatus(" Duplicate "); !ok || status != SubmissionStatusDuplicate {
		t.Fatalf("status parse should trim")
	}
}

func TestCampaignRules(t *testing.T) {
	end := uint64(2000)
	campaign := Campaign{
		RemainingPool:  NewBalance(1000),
		SeverityLevels: []SeverityLevel{{ID: 0, Name: "low", MaxRewardPct: 10}, {ID: 1, Name: "crit", MaxRewardPct: 50}},
		EndTime:        &end,
	}
	level, ok := campaign.Severity(1)
	if !ok || campaign.MaxReward(level).String() != "500" {
		t.Fatalf("unexpected max reward for %+v", level)
	}
	if _, ok := campaign.Severity(2); ok {
		t.Fatalf("unknown severity resolved")
	}
	if !campaign.AcceptsSubmissionsAt(1999) || campaign.AcceptsSubmissionsAt(2000) {
		t.Fatalf("end_time must be exclusive")
	}

	clone := campaign.Clone()
	clone.SeverityLevels[0].Name = "changed"
	*clone.EndTime = 1
	if campaign.SeverityLevels[0].Name != "low" || *campaign.EndTime != 2000 {
		t.Fatalf("clone shares memory with original")
	}
}

func TestCustodySurplusFloorsAtZero(t *testing.T) {
	custody := Custody{Held: NewBalance(5), Escrowed: NewBalance(8)}
	if !custody.Surplus().IsZero() {
		t.Fatalf("surplus should saturate, got %s", custody.Surplus())
	}
	custody.Held = NewBalance(11)
	if custody.Surplus().String() != "3" {
		t.Fatalf("unexpected surplus %s", custody.Surplus())
	}
	if !strings.HasPrefix(TokenAsset(" tok.near ").Key(), "ft:tok") {
		t.Fatalf("token id not trimmed")
	}
}
