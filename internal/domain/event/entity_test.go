package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvent_IsClosed(t *testing.T) {
	tests := []struct {
		name   string
		status Status
		want   bool
	}{
		{"closedのイベント", StatusClosed, true},
		{"liveのイベント", StatusLive, false},
		{"upcomingのイベント", StatusUpcoming, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &Event{Status: tt.status}
			assert.Equal(t, tt.want, e.IsClosed())
		})
	}
}

func TestEvent_Validate(t *testing.T) {
	valid := Event{Title: "ライブ公演", TotalSeats: 100, AvailableSeats: 100, Status: StatusLive}

	t.Run("正常なイベント", func(t *testing.T) {
		e := valid
		assert.NoError(t, e.Validate())
	})

	t.Run("タイトルが空", func(t *testing.T) {
		e := valid
		e.Title = ""
		assert.ErrorIs(t, e.Validate(), ErrTitleRequired)
	})

	t.Run("総座席数が0", func(t *testing.T) {
		e := valid
		e.TotalSeats = 0
		assert.ErrorIs(t, e.Validate(), ErrInvalidTotalSeats)
	})

	t.Run("空席数が負", func(t *testing.T) {
		e := valid
		e.AvailableSeats = -1
		assert.ErrorIs(t, e.Validate(), ErrInvalidAvailableSeats)
	})

	t.Run("空席数が総座席数を超過", func(t *testing.T) {
		e := valid
		e.AvailableSeats = 101
		assert.ErrorIs(t, e.Validate(), ErrInvalidAvailableSeats)
	})
}
