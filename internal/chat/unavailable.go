package chat

import "context"

// Unavailable returns a Client whose every operation fails with
// ErrUnavailable. It stands in for the platform transport in builds and
// deployments that do not link one, so that commands depending on the
// platform degrade to a reported error instead of a crash.
func Unavailable() Client {
	return unavailableClient{}
}

type unavailableClient struct{}

func (unavailableClient) Connect(context.Context) error                  { return ErrUnavailable }
func (unavailableClient) IsAuthorized(context.Context) (bool, error)     { return false, ErrUnavailable }
func (unavailableClient) SendCode(context.Context, string) error         { return ErrUnavailable }
func (unavailableClient) SignIn(context.Context, string, string) error   { return ErrUnavailable }
func (unavailableClient) ListDialogs(context.Context, int) ([]Dialog, error) {
	return nil, ErrUnavailable
}
func (unavailableClient) StreamMessages(context.Context, int64) (History, error) {
	return nil, ErrUnavailable
}
func (unavailableClient) GetParticipants(context.Context, int64) ([]Sender, error) {
	return nil, ErrUnavailable
}
func (unavailableClient) GetFullProfile(context.Context, int64) (string, error) {
	return "", ErrUnavailable
}
func (unavailableClient) InviteToGroup(context.Context, Dialog, InviteTarget) error {
	return ErrUnavailable
}
func (unavailableClient) Close() error { return nil }
