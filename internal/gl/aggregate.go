package gl

// Combine unions per-source contribution sets, summing debit and credit per
// account. The union is order independent; accounts with no contributions in
// any set are simply absent from the result.
func Combine(sets ...[]Movement) map[int64]Movement {
	combined := make(map[int64]Movement)
	for _, set := range sets {
		for _, mv := range set {
			agg := combined[mv.AccountID]
			agg.AccountID = mv.AccountID
			agg.Debit = agg.Debit.Add(mv.Debit)
			agg.Credit = agg.Credit.Add(mv.Credit)
			combined[mv.AccountID] = agg
		}
	}
	return combined
}
