package catalog_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/bookxchange/internal/catalog"
	"github.com/MrJamesThe3rd/bookxchange/internal/ledger"
)

type stubSubmitter struct {
	got []catalog.Listing
}

func (s *stubSubmitter) SubmitListing(_ context.Context, l catalog.Listing) (*ledger.Book, error) {
	s.got = append(s.got, l)

	if _, err := catalog.NormalizeISBN(l.ISBN); err != nil {
		return nil, err
	}

	return &ledger.Book{SellerID: l.SellerID, Title: l.Title}, nil
}

func TestService_Import(t *testing.T) {
	csv := `title;authors;isbn;condition
Dune;Frank Herbert;0441013597;Good
Broken;Nobody;12345;Good
Emma;Jane Austen;;Fair
`

	sub := &stubSubmitter{}
	svc := catalog.NewService(sub, nil)

	res, err := svc.Import(context.Background(), "seller-1", strings.NewReader(csv))
	require.NoError(t, err)

	require.Len(t, sub.got, 3)

	for _, l := range sub.got {
		assert.Equal(t, "seller-1", l.SellerID)
	}

	require.Len(t, res.Created, 2)
	assert.Equal(t, "Dune", res.Created[0].Title)
	assert.Equal(t, "Emma", res.Created[1].Title)

	require.Len(t, res.Failed, 1)
	assert.Equal(t, 3, res.Failed[0].Line)
	assert.Equal(t, "Broken", res.Failed[0].Title)
	assert.ErrorIs(t, res.Failed[0].Err, catalog.ErrInvalidISBN)
	assert.Contains(t, fmt.Sprint(res.Failed[0]), "line 3 (Broken)")
}

func TestService_Import_ParseError(t *testing.T) {
	svc := catalog.NewService(&stubSubmitter{}, nil)

	_, err := svc.Import(context.Background(), "seller-1", strings.NewReader("what;is;this\n"))
	assert.ErrorIs(t, err, catalog.ErrUnknownFormat)
}
