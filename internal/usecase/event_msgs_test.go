package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type pubFunc func(context.Context, RunCompletedMsg) error

func (f pubFunc) PublishRunCompleted(ctx context.Context, m RunCompletedMsg) error { return f(ctx, m) }

func TestPublishers_FanOut(t *testing.T) {
	boom := errors.New("broker down")
	var got []string
	ps := Publishers{
		pubFunc(func(_ context.Context, m RunCompletedMsg) error { got = append(got, "a:"+m.RunID); return boom }),
		pubFunc(func(_ context.Context, m RunCompletedMsg) error { got = append(got, "b:"+m.RunID); return nil }),
	}

	err := ps.PublishRunCompleted(context.Background(), RunCompletedMsg{RunID: "r1"})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"a:r1", "b:r1"}, got)

	assert.NoError(t, Publishers(nil).PublishRunCompleted(context.Background(), RunCompletedMsg{}))
}

func TestRunRequest_Params(t *testing.T) {
	def := Params{Customers: 300, Products: 500, Orders: 2500, MaxItemsPerOrder: 7, Days: 30, Seed: 9}
	zero := 0

	p, err := RunRequest{Orders: &zero, Days: 3, StartDate: "2025-06-01"}.Params(def)
	assert.NoError(t, err)
	assert.Equal(t, 0, p.Orders)
	assert.Equal(t, 300, p.Customers)
	assert.Equal(t, 3, p.Days)
	assert.Equal(t, uint64(9), p.Seed)
	if assert.NotNil(t, p.StartDate) {
		assert.Equal(t, "2025-06-01", p.StartDate.Format("2006-01-02"))
	}

	neg := -5
	tests := map[string]RunRequest{
		"negative count": {Products: &neg},
		"bad date":       {StartDate: "June 1"},
		"zero items":     {MaxItemsPerOrder: -1},
		"negative days":  {Days: -2},
	}
	for name, req := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := req.Params(def)
			assert.ErrorIs(t, err, ErrInvalidRequest)
		})
	}
}
