package notifier

import (
	"context"

	"SpendGuard/internal/recorder"
)

// SpendRejected pushes a rejected-spend alert to the chat.
func (t *TelegramNotifier) SpendRejected(ctx context.Context, evt *recorder.SpendEvent) {
	t.TrySend(ctx, FormatSpendRejected(evt))
}

// LimitChanged pushes a limit change alert to the chat, accepted or not.
func (t *TelegramNotifier) LimitChanged(ctx context.Context, evt *recorder.LimitChangeEvent) {
	t.TrySend(ctx, FormatLimitChange(evt))
}
