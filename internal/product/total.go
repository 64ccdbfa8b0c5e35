package product

type Total struct {
	Total   float64 `json:"total"`
	IsValid bool    `json:"isValid"`
}

// ComputeTotal derives the display total. IsValid only gates display and
// says nothing about the other fields.
func ComputeTotal(price, tax, adsCost, reduction float64) Total {
	return Total{
		Total:   price + tax + adsCost - reduction,
		IsValid: price > 0,
	}
}
