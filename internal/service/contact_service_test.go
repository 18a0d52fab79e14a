package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitRequiresEveryField(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	full := ContactForm{Name: "Ann", Email: "ann@example.com", Subject: "Hi", Message: "Where is my order?"}
	blank := []struct {
		field string
		form  ContactForm
	}{
		{"name", ContactForm{Email: full.Email, Subject: full.Subject, Message: full.Message}},
		{"email", ContactForm{Name: full.Name, Subject: full.Subject, Message: full.Message}},
		{"subject", ContactForm{Name: full.Name, Email: full.Email, Message: full.Message}},
		{"message", ContactForm{Name: full.Name, Email: full.Email, Subject: full.Subject, Message: "  "}},
	}
	for _, tt := range blank {
		_, err := f.contact.Submit(ctx, tt.form)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr, tt.field)
		assert.Equal(t, tt.field, verr.Field)
	}

	msg, err := f.contact.Submit(ctx, full)
	require.NoError(t, err)
	assert.NotZero(t, msg.ID)
}

func TestListAndDeleteMessages(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	first, err := f.contact.Submit(ctx, ContactForm{Name: "A", Email: "a@example.com", Subject: "1", Message: "one"})
	require.NoError(t, err)
	second, err := f.contact.Submit(ctx, ContactForm{Name: "B", Email: "b@example.com", Subject: "2", Message: "two"})
	require.NoError(t, err)

	messages, err := f.contact.List(ctx)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, second.ID, messages[0].ID)

	require.NoError(t, f.contact.Delete(ctx, first.ID))
	assert.ErrorIs(t, f.contact.Delete(ctx, first.ID), ErrMessageNotFound)

	messages, err = f.contact.List(ctx)
	require.NoError(t, err)
	assert.Len(t, messages, 1)
}
