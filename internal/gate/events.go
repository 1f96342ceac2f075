package gate

import "github.com/mamadbah2/stockroom/internal/domain/models"

// Event is a user action accepted by Dispatch.
type Event interface {
	isEvent()
}

type (
	SignIn struct{ Credentials models.Credentials }
	SignUp struct{ Credentials models.Credentials }
	SignOut struct{}

	AddItem struct {
		Identifier string
		Category   models.Category
	}
	RemoveItem struct{ Identifier string }

	Search         struct{ Term string }
	SelectCategory struct{ Category models.Category }
)

func (SignIn) isEvent()         {}
func (SignUp) isEvent()         {}
func (SignOut) isEvent()        {}
func (AddItem) isEvent()        {}
func (RemoveItem) isEvent()     {}
func (Search) isEvent()         {}
func (SelectCategory) isEvent() {}
