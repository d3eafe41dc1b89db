package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionRecord_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    TransactionRecord
		wantErr bool
	}{
		{
			name:  "numeric fields",
			input: `{"from_address":"0xa","to_address":"0xb","amount":12.5,"token":"ETH","timestamp":1700000000,"status":"confirmed"}`,
			want:  TransactionRecord{FromAddress: "0xa", ToAddress: "0xb", Amount: 12.5, Token: "ETH", Timestamp: 1700000000, Status: "confirmed"},
		},
		{
			name:  "string encoded numbers",
			input: `{"from_address":"0xa","to_address":"0xb","amount":"250","timestamp":"1700000100"}`,
			want:  TransactionRecord{FromAddress: "0xa", ToAddress: "0xb", Amount: 250, Timestamp: 1700000100},
		},
		{
			name:  "negative amount clamped",
			input: `{"from_address":"0xa","amount":-3,"timestamp":1}`,
			want:  TransactionRecord{FromAddress: "0xa", Amount: 0, Timestamp: 1},
		},
		{
			name:  "missing numbers default to zero",
			input: `{"from_address":"0xa"}`,
			want:  TransactionRecord{FromAddress: "0xa"},
		},
		{
			name:    "garbage amount",
			input:   `{"amount":"lots"}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got TransactionRecord
			err := json.Unmarshal([]byte(tt.input), &got)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAction_Severity(t *testing.T) {
	ladder := []Action{ActionNoAction, ActionMonitor, ActionInvestigate, ActionFreeze}
	for i := 1; i < len(ladder); i++ {
		assert.Greater(t, ladder[i].Severity(), ladder[i-1].Severity(), "%s should outrank %s", ladder[i], ladder[i-1])
	}
	assert.Equal(t, -1, ActionManualReview.Severity())
}

func TestTransactionSnapshot_Len(t *testing.T) {
	var nilSnapshot *TransactionSnapshot
	assert.Equal(t, 0, nilSnapshot.Len())

	snapshot := &TransactionSnapshot{Transactions: make([]TransactionRecord, 3)}
	assert.Equal(t, 3, snapshot.Len())
}

func TestNormalizeAddress(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0xAbCdEf", "0xabcdef"},
		{"0XABC", "0xabc"},
		{"7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU", "7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU"},
		{"0", "0"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeAddress(tt.in), tt.in)
	}

	assert.True(t, SameAddress("0xABC", "0xabc"))
	assert.False(t, SameAddress("AbC", "abc"))
}
