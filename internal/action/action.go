package action

import (
	"fmt"

	"emperor/internal/chain"
)

const (
	// LamportsPerSOL converts the chain's base units to display units.
	LamportsPerSOL = 1_000_000_000

	// bidMarkup is the 10% raise a challenger must pay over the current bid.
	bidMarkup = 1.1

	title          = "Emperor"
	staticLabel    = "Defeat Emperor"
	staticBlurb    = "Pay the rising bid to seize the throne and earn 5% profit when outbid."
	inactiveNotice = "The game is not initialized on this network."
)

// Pricing is what the translator derives from a game state snapshot. It is
// display-only: the exact lamport arithmetic stays on-chain.
type Pricing struct {
	Title       string
	Label       string
	Description string
	NextBidSOL  float64
	Active      bool
}

type LinkedAction struct {
	Label string `json:"label"`
	Href  string `json:"href"`
}

type Links struct {
	Actions []LinkedAction `json:"actions"`
}

// Descriptor is the discovery payload served to action-aware clients.
type Descriptor struct {
	Icon        string `json:"icon"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Label       string `json:"label"`
	Links       Links  `json:"links"`
}

type ClaimResponse struct {
	Transaction string `json:"transaction"`
	Message     string `json:"message"`
}

// Translate turns a game state snapshot into display pricing. A nil state
// means the game is not initialized; the output falls back to the static
// copy plus the inactive notice.
func Translate(state *chain.GameState) Pricing {
	if state == nil {
		return Pricing{
			Title:       title,
			Label:       staticLabel,
			Description: staticBlurb + " " + inactiveNotice,
		}
	}

	currentSOL := float64(state.CurrentBid) / LamportsPerSOL
	nextSOL := currentSOL * bidMarkup
	emperor := state.CurrentEmperor.String()
	if len(emperor) > 6 {
		emperor = emperor[:6]
	}

	return Pricing{
		Title: title,
		Label: fmt.Sprintf("%s (%.3f SOL)", staticLabel, nextSOL),
		Description: fmt.Sprintf(
			"Emperor %s holds the throne at %.2f SOL. Outbid them with %.3f SOL and earn 5%% profit when outbid.",
			emperor, currentSOL, nextSOL,
		),
		NextBidSOL: nextSOL,
		Active:     true,
	}
}

// Describe wraps pricing into the discovery payload. The single action link
// always targets this service's own transaction endpoint.
func Describe(p Pricing, iconURL, href string) Descriptor {
	return Descriptor{
		Icon:        iconURL,
		Title:       p.Title,
		Description: p.Description,
		Label:       p.Label,
		Links: Links{
			Actions: []LinkedAction{
				{Label: p.Label, Href: href},
			},
		},
	}
}

// ClaimMessage is the confirmation string returned alongside an unsigned
// claim transaction.
func ClaimMessage(state chain.GameState) string {
	p := Translate(&state)
	return fmt.Sprintf("Claim the throne for %.3f SOL", p.NextBidSOL)
}
