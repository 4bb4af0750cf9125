package handler

import (
	"context"
	"errors"
	"iter"
	"sync/atomic"
	"time"

	"github.com/k-negishi/abi-shift-sync/internal/domain"
)

// fakeSyncer は決まったメッセージを返す Syncer のテスト用実装
type fakeSyncer struct {
	messages []string
	err      error

	calls    atomic.Int32
	yielded  atomic.Int32
	request  domain.SyncRequest
	deadline time.Time
}

func (f *fakeSyncer) Execute(ctx context.Context, req domain.SyncRequest) iter.Seq2[string, error] {
	f.calls.Add(1)
	f.request = req
	f.deadline, _ = ctx.Deadline()
	return func(yield func(string, error) bool) {
		for _, msg := range f.messages {
			f.yielded.Add(1)
			if !yield(msg, nil) {
				return
			}
		}
		if f.err != nil {
			yield("", f.err)
		}
	}
}

func newFakeSyncer(err error, messages ...string) *fakeSyncer {
	return &fakeSyncer{messages: messages, err: err}
}

var errPortalDown = errors.New("portal down")

const validBody = `{"venue_id": "1234", "username": "guard01", "password": "0000"}`

func validRequest() domain.SyncRequest {
	return domain.SyncRequest{VenueID: "1234", Username: "guard01", Password: "0000"}
}
