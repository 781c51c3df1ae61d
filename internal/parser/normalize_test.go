package parser

import (
	"math"
	"testing"
)

func TestNormalizeCategory(t *testing.T) {
	available := []string{"Makanan & Minuman", "Transport"}

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"exact match kept", "Transport", "Transport"},
		{"case-insensitive match", "transport", "Transport"},
		{"no match falls back to first available", "Makan", "Makanan & Minuman"},
		{"empty suggestion falls back to first available", "", "Makanan & Minuman"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeCategory(tt.raw, available); got != tt.want {
				t.Errorf("NormalizeCategory(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}

	t.Run("no categories at all yields the sentinel", func(t *testing.T) {
		if got := NormalizeCategory("Makan", nil); got != FallbackCategory {
			t.Errorf("got %q, want %q", got, FallbackCategory)
		}
	})
}

func TestNormalize(t *testing.T) {
	available := []string{"Makanan & Minuman", "Transport"}

	t.Run("drops invalid candidates", func(t *testing.T) {
		got := Normalize([]Candidate{
			{Name: "", Category: "Transport", Amount: 5000},
			{Name: "   ", Category: "Transport", Amount: 5000},
			{Name: "Es Teh", Category: "Makanan & Minuman", Amount: 0},
			{Name: "Kopi", Category: "Makanan & Minuman", Amount: -100},
			{Name: "Nasi Goreng", Category: "Makanan & Minuman", Amount: 15000},
		}, available)

		if len(got) != 1 {
			t.Fatalf("got %d expenses, want 1", len(got))
		}
		if got[0].Name != "Nasi Goreng" || got[0].Amount != 15000 {
			t.Errorf("survivor = %+v", got[0])
		}
	})

	t.Run("merges duplicates with count suffix", func(t *testing.T) {
		got := Normalize([]Candidate{
			{Name: "Es Teh", Category: "Makanan & Minuman", Amount: 5000},
			{Name: "es teh ", Category: "Makanan & Minuman", Amount: 5000},
			{Name: "Nasi Goreng", Category: "Makanan & Minuman", Amount: 15000},
		}, available)

		if len(got) != 2 {
			t.Fatalf("got %d expenses, want 2", len(got))
		}
		if got[0].Name != "Es Teh (x2)" {
			t.Errorf("merged name = %q, want %q", got[0].Name, "Es Teh (x2)")
		}
		if math.Abs(got[0].Amount-10000) > 1e-9 {
			t.Errorf("merged amount = %v, want 10000", got[0].Amount)
		}
		if got[1].Name != "Nasi Goreng" {
			t.Errorf("second expense = %q", got[1].Name)
		}
	})

	t.Run("title-cases shouty and lowercase names", func(t *testing.T) {
		got := Normalize([]Candidate{
			{Name: "AYAM BAKAR", Category: "Makanan & Minuman", Amount: 20000},
			{Name: "es jeruk", Category: "Makanan & Minuman", Amount: 6000},
			{Name: "McFlurry", Category: "Makanan & Minuman", Amount: 12000},
		}, available)

		if got[0].Name != "Ayam Bakar" {
			t.Errorf("got %q, want Ayam Bakar", got[0].Name)
		}
		if got[1].Name != "Es Jeruk" {
			t.Errorf("got %q, want Es Jeruk", got[1].Name)
		}
		// Mixed case is assumed intentional.
		if got[2].Name != "McFlurry" {
			t.Errorf("got %q, want McFlurry", got[2].Name)
		}
	})

	t.Run("unknown category falls back to first available", func(t *testing.T) {
		got := Normalize([]Candidate{
			{Name: "Soto", Category: "Makan", Amount: 18000},
		}, available)
		if got[0].Category != "Makanan & Minuman" {
			t.Errorf("category = %q, want Makanan & Minuman", got[0].Category)
		}
	})
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "bare object",
			in:   `{"name":"Kopi","category":"Makanan & Minuman","amount":8000}`,
			want: `{"name":"Kopi","category":"Makanan & Minuman","amount":8000}`,
		},
		{
			name: "markdown fenced array",
			in:   "```json\n[{\"name\":\"Kopi\",\"amount\":8000}]\n```",
			want: `[{"name":"Kopi","amount":8000}]`,
		},
		{
			name: "object with surrounding prose",
			in:   `Berikut hasilnya: {"name":"Kopi","amount":8000} semoga membantu`,
			want: `{"name":"Kopi","amount":8000}`,
		},
		{
			name: "no json at all",
			in:   "maaf, saya tidak bisa membaca struk ini",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractJSON(tt.in); got != tt.want {
				t.Errorf("extractJSON() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecodeCandidates(t *testing.T) {
	t.Run("single object becomes a one-element list", func(t *testing.T) {
		got, err := decodeCandidates(`{"name":"Kopi","category":"Makanan & Minuman","amount":8000}`)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 1 || got[0].Name != "Kopi" || got[0].Amount != 8000 {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("array passes through", func(t *testing.T) {
		got, err := decodeCandidates(`[{"name":"A","amount":1},{"name":"B","amount":2}]`)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 2 {
			t.Errorf("got %d candidates, want 2", len(got))
		}
	})

	t.Run("garbage is an error", func(t *testing.T) {
		if _, err := decodeCandidates("tidak ada json"); err == nil {
			t.Error("expected error for non-JSON response")
		}
	})
}
