package store

import "github.com/safar/storefront/internal/models"

// Notifier receives user-facing feedback from cart and wishlist mutations.
// A nil Notifier is allowed everywhere and drops the message.
type Notifier interface {
	Notify(typ models.NotificationType, title, message string)
}

type NotifierFunc func(typ models.NotificationType, title, message string)

func (f NotifierFunc) Notify(typ models.NotificationType, title, message string) {
	f(typ, title, message)
}

func notify(n Notifier, typ models.NotificationType, message string) {
	if n != nil {
		n.Notify(typ, "", message)
	}
}
