package emailsvc

import (
	"fmt"
	"net/mail"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

// sender is what every mail service shares: who the mail comes from and how subjects read.
type sender struct {
	from       mail.Address
	subjPrefix string
	logger     core.Logger
}

func newSender(logger core.Logger, conf *core.Config) sender {
	return sender{
		from:       conf.DefaultFromEmail(),
		subjPrefix: "[" + conf.AppName + "] ",
		logger:     logger,
	}
}

func (s sender) subject(msg core.EmailMessage) string {
	return s.subjPrefix + msg.Subject
}

// deliver renders msg and passes it to send, unless it has no recipient or nothing to say.
func deliver(msg *core.EmailMessage, send func(core.EmailMessage) error) error {
	if err := msg.Render(); err != nil {
		return errors.Wrap(err, "rendering email")
	}
	if !msg.HasRecipients() || !(msg.HasContent() || msg.HasAttachments()) {
		return nil
	}
	return send(*msg)
}

// dispatch delivers every message in its own goroutine and logs the failures.
func (s sender) dispatch(messages []*core.EmailMessage, send func(core.EmailMessage) error) {
	for _, msg := range messages {
		go func(msg *core.EmailMessage) {
			if err := deliver(msg, send); err != nil {
				s.logger.Error(fmt.Sprintf("sending email: %v", err), err)
			}
		}(msg)
	}
}
