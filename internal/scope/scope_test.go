package scope

import (
	"reflect"
	"testing"
)

func TestExtract(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		expect []string
	}{
		{
			name: "scope block terminated by blank line",
			input: "RFP No: 42\nScope of Supply:\n- 4 core 16 sqmm XLPE copper cable\n• 3 core 10 sqmm PVC aluminium cable\n\n" +
				"- 2 core 2.5 sqmm PVC copper cable",
			expect: []string{
				"4 core 16 sqmm XLPE copper cable",
				"3 core 10 sqmm PVC aluminium cable",
			},
		},
		{
			name:   "scope of work header is case insensitive",
			input:  "SCOPE OF WORK\n  - Armoured cable 1.1kV  \nTesting requirements\n- ignored",
			expect: []string{"Armoured cable 1.1kV"},
		},
		{
			name:   "general section stops collection",
			input:  "Scope of supply\nItem A\nItem B\nGeneral terms apply\nItem C",
			expect: []string{"Item A", "Item B"},
		},
		{
			name:   "bare bullet is dropped without stopping",
			input:  "Scope of supply\n-\n- Item A\n--  Item B",
			expect: []string{"Item A", "Item B"},
		},
		{
			name:   "lines before the header are skipped",
			input:  "4 core cable mentioned early\nScope of Supply\n- 2 core cable",
			expect: []string{"2 core cable"},
		},
		{
			name:   "windows line endings",
			input:  "Scope of Supply\r\n- Item A\r\n- Item B\r\n\r\n- Item C",
			expect: []string{"Item A", "Item B"},
		},
		{
			name: "fallback scans whole text when no header",
			input: "Tender for power distribution\n- 4 core 25 sq mm copper conductor\nPower CABLE, 11kV\n" +
				"Delivery within 30 days\n3 core only",
			expect: []string{"4 core 25 sq mm copper conductor", "Power CABLE, 11kV"},
		},
		{
			name:   "fallback when header block is empty",
			input:  "Scope of Supply\n\nSupply of XLPE cable",
			expect: []string{"Supply of XLPE cable"},
		},
		{
			name:   "nothing to extract",
			input:  "Bid due on 12 March\nContact the purchase office",
			expect: []string{},
		},
		{
			name:   "empty text",
			input:  "",
			expect: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Extract(tt.input)
			if !reflect.DeepEqual(got, tt.expect) {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestExtractReturnsEveryBulletOfTheBlock(t *testing.T) {
	t.Parallel()

	bullets := []string{"line one", "line two", "line three", "line four", "line five"}

	text := "Scope of Supply\n"
	for _, b := range bullets {
		text += "- " + b + "\n"
	}
	text += "\nTesting: type tests"

	got := Extract(text)
	if !reflect.DeepEqual(got, bullets) {
		t.Fatalf("expected %q, got %q", bullets, got)
	}
}
