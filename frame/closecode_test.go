package frame

import "testing"

func TestCloseCode_IsSendable(t *testing.T) {
	tests := []struct {
		code CloseCode
		want bool
	}{
		{CloseNormal, true},
		{CloseGoingAway, true},
		{CloseProtocolError, true},
		{CloseUnacceptableData, true},
		{closeReserved1004, false},
		{CloseNoStatus, false},
		{CloseAbnormal, false},
		{CloseInconsistentData, true},
		{ClosePolicyViolation, true},
		{CloseMessageTooLarge, true},
		{CloseExpectedExtension, true},
		{CloseInternalError, false},
		{1012, false},
		{1014, false},
		{CloseTLSHandshake, false},
		{3000, true},
		{3999, true},
		{4000, true},
		{4999, true},
		{5000, false},
		{999, false},
	}
	for _, tt := range tests {
		if got := tt.code.IsSendable(); got != tt.want {
			t.Errorf("CloseCode(%d).IsSendable() = %v, want %v", tt.code, got, tt.want)
		}
	}
}
