package smsbackup

import (
	"testing"
)

func strPtr(s string) *string { return &s }

func TestExtractAmount(t *testing.T) {
	tests := []struct {
		name string
		body *string
		want *float64
	}{
		{
			name: "currency tagged amount",
			body: strPtr("You have received 27,000 RWF from John Doe."),
			want: floatPtr(27000),
		},
		{
			name: "currency tag lowercase",
			body: strPtr("Your payment of 5,500 rwf was completed."),
			want: floatPtr(5500),
		},
		{
			name: "currency tag with decimals",
			body: strPtr("A transfer of 1,234.56 RWF has been completed."),
			want: floatPtr(1234.56),
		},
		{
			name: "keyword anchored payment",
			body: strPtr("Your payment of 1,234.50 to MTN has been completed."),
			want: floatPtr(1234.50),
		},
		{
			name: "keyword anchored balance",
			body: strPtr("Your new balance: 9,850 Fees paid 100"),
			want: floatPtr(9850),
		},
		{
			name: "keyword anchored is colon",
			body: strPtr("The amount credited is: 750 for airtime"),
			want: floatPtr(750),
		},
		{
			name: "currency tag wins over keyword",
			body: strPtr("received 500 but the amount is 27,000 RWF"),
			want: floatPtr(27000),
		},
		{
			name: "keyword wins over bare number",
			body: strPtr("TX 99887766 payment of 2,500 completed"),
			want: floatPtr(2500),
		},
		{
			name: "bare number fallback",
			body: strPtr("TX id 778899"),
			want: floatPtr(778899),
		},
		{
			name: "bare number with separators",
			body: strPtr("completed: 12,000 only"),
			want: floatPtr(12000),
		},
		{
			name: "single digit never matches fallback",
			body: strPtr("you have 5 new messages"),
			want: nil,
		},
		{
			name: "no number at all",
			body: strPtr("Welcome to the service."),
			want: nil,
		},
		{
			name: "empty body",
			body: strPtr(""),
			want: nil,
		},
		{
			name: "nil body",
			body: nil,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractAmount(tt.body)
			if tt.want == nil {
				if got != nil {
					t.Fatalf("ExtractAmount() = %v, want nil", *got)
				}
				return
			}
			if got == nil {
				t.Fatalf("ExtractAmount() = nil, want %v", *tt.want)
			}
			if *got != *tt.want {
				t.Errorf("ExtractAmount() = %v, want %v", *got, *tt.want)
			}
		})
	}
}

func TestExtractAmountIsDeterministic(t *testing.T) {
	body := strPtr("payment of 3,000 RWF ref 555666")
	first := ExtractAmount(body)
	second := ExtractAmount(body)
	if first == nil || second == nil {
		t.Fatal("expected an amount from both calls")
	}
	if *first != *second {
		t.Errorf("repeated extraction disagrees: %v vs %v", *first, *second)
	}
}

func floatPtr(f float64) *float64 { return &f }
