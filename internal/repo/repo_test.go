package repo

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tryst/internal/model"
)

// testRepository runs the behaviour every backend must share.
func testRepository(t *testing.T, open func(t *testing.T) Repository) {
	t.Run("contact messages are stored in insertion order", func(t *testing.T) {
		r := open(t)
		ctx := context.Background()
		before := time.Now().UTC().Add(-time.Second)

		for i := 0; i < 3; i++ {
			m := &model.ContactMessage{
				Name:    fmt.Sprintf("sender %d", i),
				Email:   "same@x.com",
				College: "C",
				Course:  "X",
				Message: "hello there organisers",
			}
			require.NoError(t, r.CreateContactMessage(ctx, m))
			assert.NotEmpty(t, m.ID)
			assert.True(t, m.CreatedAt.After(before))
		}

		msgs, err := r.ListContactMessages(ctx)
		require.NoError(t, err)
		require.Len(t, msgs, 3)
		for i, m := range msgs {
			assert.Equal(t, fmt.Sprintf("sender %d", i), m.Name)
			assert.Contains(t, []string{"", model.ContactStatusNew}, m.Status)
		}
	})

	t.Run("registration emails are unique per kind", func(t *testing.T) {
		r := open(t)
		ctx := context.Background()

		require.NoError(t, r.CreateGeneralRegistration(ctx, generalReg("dup@x.com")))
		err := r.CreateGeneralRegistration(ctx, generalReg("dup@x.com"))
		assert.ErrorIs(t, err, ErrDuplicateKey)

		require.NoError(t, r.CreateEventRegistration(ctx, eventReg("dup@x.com")))
		err = r.CreateEventRegistration(ctx, eventReg("dup@x.com"))
		assert.ErrorIs(t, err, ErrDuplicateKey)

		gen, err := r.ListGeneralRegistrations(ctx)
		require.NoError(t, err)
		assert.Len(t, gen, 1)
		ev, err := r.ListEventRegistrations(ctx)
		require.NoError(t, err)
		assert.Len(t, ev, 1)
		assert.Equal(t, "hackathon", ev[0].Event)
	})

	t.Run("concurrent duplicates write once", func(t *testing.T) {
		r := open(t)
		ctx := context.Background()

		const n = 6
		errs := make([]error, n)
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs[i] = r.CreateEventRegistration(ctx, eventReg("race@x.com"))
			}(i)
		}
		wg.Wait()

		var ok int
		for _, err := range errs {
			if err == nil {
				ok++
				continue
			}
			assert.ErrorIs(t, err, ErrDuplicateKey)
		}
		assert.Equal(t, 1, ok)
	})

	t.Run("missing required field is rejected", func(t *testing.T) {
		r := open(t)
		ctx := context.Background()

		reg := eventReg("v@x.com")
		reg.College = " "
		err := r.CreateEventRegistration(ctx, reg)
		require.ErrorIs(t, err, ErrValidation)
		var fe *model.FieldError
		require.True(t, errors.As(err, &fe))
		assert.Equal(t, "college", fe.Field)

		err = r.CreateContactMessage(ctx, &model.ContactMessage{Name: "n", Email: "e@x.com"})
		assert.ErrorIs(t, err, ErrValidation)

		stats, err := r.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, model.Stats{}, stats)
	})

	t.Run("team members are optional", func(t *testing.T) {
		r := open(t)
		ctx := context.Background()

		reg := eventReg("team@x.com")
		reg.TeamMembers = "Ravi, Meena"
		require.NoError(t, r.CreateEventRegistration(ctx, reg))
		require.NoError(t, r.CreateEventRegistration(ctx, eventReg("solo@x.com")))

		ev, err := r.ListEventRegistrations(ctx)
		require.NoError(t, err)
		require.Len(t, ev, 2)
		assert.Equal(t, "Ravi, Meena", ev[0].TeamMembers)
		assert.Empty(t, ev[1].TeamMembers)
	})

	t.Run("email exists", func(t *testing.T) {
		r := open(t)
		ctx := context.Background()

		require.NoError(t, r.CreateGeneralRegistration(ctx, generalReg("here@x.com")))

		found, err := r.EmailExists(ctx, model.KindGeneralRegistration, "here@x.com")
		require.NoError(t, err)
		assert.True(t, found)

		found, err = r.EmailExists(ctx, model.KindEventRegistration, "here@x.com")
		require.NoError(t, err)
		assert.False(t, found, "kinds do not share emails")

		_, err = r.EmailExists(ctx, model.KindContact, "here@x.com")
		assert.ErrorIs(t, err, ErrUnknownKind)
	})

	t.Run("stats", func(t *testing.T) {
		r := open(t)
		ctx := context.Background()

		for _, status := range []string{"", model.ContactStatusNew, model.ContactStatusResolved} {
			require.NoError(t, r.CreateContactMessage(ctx, &model.ContactMessage{
				Name: "n", Email: "e@x.com", College: "c", Course: "x", Message: "message body", Status: status,
			}))
		}
		require.NoError(t, r.CreateGeneralRegistration(ctx, generalReg("g@x.com")))

		stats, err := r.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, model.Stats{
			TotalContacts:      3,
			TotalRegistrations: 1,
			NewContacts:        2,
		}, stats)
		require.NoError(t, r.Ping(ctx))
	})
}

func generalReg(email string) *model.GeneralRegistration {
	return &model.GeneralRegistration{
		Name:       "Asha",
		Email:      email,
		Phone:      "9876543210",
		College:    "DTU",
		RollNumber: "42",
		Year:       "2",
		Course:     "B.Tech",
	}
}

func eventReg(email string) *model.EventRegistration {
	return &model.EventRegistration{
		Name:       "A",
		Email:      email,
		Phone:      "9999999999",
		College:    "C",
		RollNumber: "1",
		Event:      "hackathon",
	}
}
