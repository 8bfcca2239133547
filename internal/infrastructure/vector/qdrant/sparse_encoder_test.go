package qdrant

import "testing"

func TestEncodeSparseQueryDeterministic(t *testing.T) {
	v1 := encodeSparseQuery("prerequisites for CS 201")
	v2 := encodeSparseQuery("prerequisites for CS 201")
	if len(v1.Indices) != len(v2.Indices) || len(v1.Values) != len(v2.Values) {
		t.Fatalf("vector sizes mismatch: v1=%d/%d v2=%d/%d", len(v1.Indices), len(v1.Values), len(v2.Indices), len(v2.Values))
	}
	for i := range v1.Indices {
		if v1.Indices[i] != v2.Indices[i] {
			t.Fatalf("indices mismatch at %d: %d vs %d", i, v1.Indices[i], v2.Indices[i])
		}
		if v1.Values[i] != v2.Values[i] {
			t.Fatalf("values mismatch at %d: %f vs %f", i, v1.Values[i], v2.Values[i])
		}
	}
}

func TestEncodeSparseQuerySortsIndices(t *testing.T) {
	v := encodeSparseQuery("zulu alpha beta gamma")
	if len(v.Indices) == 0 {
		t.Fatalf("expected non-empty sparse vector")
	}
	for i := 1; i < len(v.Indices); i++ {
		if v.Indices[i-1] > v.Indices[i] {
			t.Fatalf("indices not sorted at %d: %d > %d", i, v.Indices[i-1], v.Indices[i])
		}
	}
}

func TestEncodeSparseQueryEmptyNoiseInput(t *testing.T) {
	v := encodeSparseQuery("___---!!!")
	if len(v.Indices) != 0 || len(v.Values) != 0 {
		t.Fatalf("expected empty sparse vector, got %+v", v)
	}
}

func TestEncodeSparseDocumentBoostsSectionTokens(t *testing.T) {
	plain := encodeSparseDocument("deadline information", "")
	boosted := encodeSparseDocument("deadline information", "deadline")

	plainWeight := weightForToken(plain, "deadline")
	boostedWeight := weightForToken(boosted, "deadline")
	if plainWeight <= 0 || boostedWeight <= 0 {
		t.Fatalf("expected deadline token in both vectors: plain=%f boosted=%f", plainWeight, boostedWeight)
	}
	if boostedWeight <= plainWeight {
		t.Fatalf("section token should weigh more: plain=%f boosted=%f", plainWeight, boostedWeight)
	}
}

func TestTokenizeAlphaNumSplitsCodesAndCase(t *testing.T) {
	tokens := tokenizeAlphaNum("CS-201: Data Structures (Fall)")
	want := map[string]bool{"cs": false, "201": false, "data": false, "structures": false, "fall": false}
	for _, tok := range tokens {
		if _, ok := want[tok]; ok {
			want[tok] = true
		}
	}
	for tok, found := range want {
		if !found {
			t.Fatalf("missing token %q in %v", tok, tokens)
		}
	}
}

func weightForToken(v sparseVector, token string) float32 {
	idx := hashToken(token)
	for i, candidate := range v.Indices {
		if candidate == idx {
			return v.Values[i]
		}
	}
	return 0
}
