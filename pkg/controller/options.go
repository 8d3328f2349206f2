package controller

import (
	"log/slog"

	"github.com/goliatone/go-resourceform/pkg/api"
	"github.com/goliatone/go-resourceform/pkg/events"
	"github.com/goliatone/go-resourceform/pkg/locale"
)

// Option configures a Controller.
type Option func(*Controller)

// WithRegistry sets the remote operation registry.
func WithRegistry(registry api.Registry) Option {
	return func(c *Controller) {
		c.registry = registry
	}
}

// WithPublisher sets where refetch topics are published.
func WithPublisher(publisher events.Publisher) Option {
	return func(c *Controller) {
		c.publisher = publisher
	}
}

// WithNotifier sets the notice sink.
func WithNotifier(notifier Notifier) Option {
	return func(c *Controller) {
		if notifier != nil {
			c.notifier = notifier
		}
	}
}

// WithNavigator sets the back-navigation capability used after creates.
func WithNavigator(navigator Navigator) Option {
	return func(c *Controller) {
		if navigator != nil {
			c.navigator = navigator
		}
	}
}

// WithTranslator overrides the built-in message catalog.
func WithTranslator(translator locale.Translator) Option {
	return func(c *Controller) {
		if translator != nil {
			c.translator = translator
		}
	}
}

// WithObserver registers an action observer.
func WithObserver(observer Observer) Option {
	return func(c *Controller) {
		if observer != nil {
			c.observer = observer
		}
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(log *slog.Logger) Option {
	return func(c *Controller) {
		if log != nil {
			c.log = log
		}
	}
}

// WithSerializedActions makes init and submit actions run one at a time per
// controller.
func WithSerializedActions() Option {
	return func(c *Controller) {
		c.serialize = true
	}
}
