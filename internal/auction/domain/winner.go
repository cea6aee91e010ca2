package domain

// PickWinner selects the winning bid: highest amount, ties broken by the
// earliest creation timestamp. Returns nil when there are no bids.
func PickWinner(bids []*Bid) *Bid {
	var winner *Bid
	for _, b := range bids {
		if winner == nil {
			winner = b
			continue
		}
		switch cmp := b.Amount.Cmp(winner.Amount); {
		case cmp > 0:
			winner = b
		case cmp == 0 && b.CreatedAt.Before(winner.CreatedAt):
			winner = b
		}
	}
	return winner
}
