package deck

import "testing"

func TestParseCards(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []Card
		wantErr  bool
	}{
		{
			name:  "blackjack",
			input: "AsKh",
			expected: []Card{
				{Suit: Spades, Rank: Ace},
				{Suit: Hearts, Rank: King},
			},
		},
		{
			name:  "low cards",
			input: "5h4d3c2s",
			expected: []Card{
				{Suit: Hearts, Rank: Five},
				{Suit: Diamonds, Rank: Four},
				{Suit: Clubs, Rank: Three},
				{Suit: Spades, Rank: Two},
			},
		},
		{
			name:  "case insensitive",
			input: "asTHqDjc",
			expected: []Card{
				{Suit: Spades, Rank: Ace},
				{Suit: Hearts, Rank: Ten},
				{Suit: Diamonds, Rank: Queen},
				{Suit: Clubs, Rank: Jack},
			},
		},
		{
			name:    "invalid rank",
			input:   "XsKs",
			wantErr: true,
		},
		{
			name:    "invalid suit",
			input:   "AsKx",
			wantErr: true,
		},
		{
			name:    "odd length",
			input:   "AsK",
			wantErr: true,
		},
		{
			name:     "empty string",
			input:    "",
			expected: []Card{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCards(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseCards() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				return
			}
			if len(got) != len(tt.expected) {
				t.Fatalf("ParseCards() returned %d cards, want %d", len(got), len(tt.expected))
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("card %d = %v, want %v", i, got[i], tt.expected[i])
				}
			}
		})
	}
}

func TestBlackjackValue(t *testing.T) {
	tests := []struct {
		rank Rank
		want int
	}{
		{Ace, 1},
		{Two, 2},
		{Seven, 7},
		{Ten, 10},
		{Jack, 10},
		{Queen, 10},
		{King, 10},
	}

	for _, tt := range tests {
		t.Run(tt.rank.String(), func(t *testing.T) {
			c := Card{Rank: tt.rank, Suit: Hearts}
			if got := c.BlackjackValue(); got != tt.want {
				t.Errorf("BlackjackValue() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestNewCard(t *testing.T) {
	if _, err := NewCard(0, Hearts); err == nil {
		t.Error("expected error for rank 0")
	}
	if _, err := NewCard(14, Hearts); err == nil {
		t.Error("expected error for rank 14")
	}
	if _, err := NewCard(Ace, Suit(7)); err == nil {
		t.Error("expected error for unknown suit")
	}

	c, err := NewCard(Queen, Spades)
	if err != nil {
		t.Fatalf("NewCard() error = %v", err)
	}
	if c.String() != "Q♠" {
		t.Errorf("String() = %q, want %q", c.String(), "Q♠")
	}
}

func TestCardString(t *testing.T) {
	if got := (Card{Rank: Ten, Suit: Diamonds}).String(); got != "10♦" {
		t.Errorf("String() = %q, want %q", got, "10♦")
	}
	if got := (Card{Rank: Ace, Suit: Hearts}).String(); got != "A♥" {
		t.Errorf("String() = %q, want %q", got, "A♥")
	}
}
