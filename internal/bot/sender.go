package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/clipferry/clipferry/internal/relay"
)

// API is the slice of the Telegram client the bot needs. Implemented by
// *tgbotapi.BotAPI.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Sender adapts the Telegram client to the relay's upload contract.
type Sender struct {
	api API
}

// NewSender creates a Telegram-backed sender.
func NewSender(api API) *Sender {
	return &Sender{api: api}
}

// SendVideo uploads path as a video reply. Telegram clients render video
// uploads with an inline player, so this is the preferred form.
func (s *Sender) SendVideo(ctx context.Context, origin relay.Origin, path string) error {
	v := tgbotapi.NewVideo(origin.ChatID, tgbotapi.FilePath(path))
	v.ReplyToMessageID = origin.MessageID
	_, err := s.api.Send(v)
	return err
}

// SendDocument uploads path as a plain document reply.
func (s *Sender) SendDocument(ctx context.Context, origin relay.Origin, path string) error {
	d := tgbotapi.NewDocument(origin.ChatID, tgbotapi.FilePath(path))
	d.ReplyToMessageID = origin.MessageID
	_, err := s.api.Send(d)
	return err
}

// notify sends a short text reply. Failures are ignored; a notice that
// cannot be delivered is not worth failing the pipeline over.
func (s *Sender) notify(chatID int64, replyTo int, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyToMessageID = replyTo
	s.api.Send(msg)
}

// uploadAction shows the "sending a video" chat action while a fetch runs.
func (s *Sender) uploadAction(chatID int64) {
	s.api.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatUploadVideo))
}
