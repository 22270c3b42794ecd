package service

import (
	"context"
	"errors"

	"github.com/spynners/api/internal/client"
	"github.com/spynners/api/internal/spyn"
	"github.com/spynners/api/internal/store"
)

// CatalogRecognizer identifies an audio sample via ACRCloud and then checks
// the hit against the SPYNNERS catalog: only catalog tracks count toward a
// session's track list.
type CatalogRecognizer struct {
	acr   *client.ACRClient
	store *store.Store
}

func NewCatalogRecognizer(acr *client.ACRClient, st *store.Store) *CatalogRecognizer {
	return &CatalogRecognizer{acr: acr, store: st}
}

// Recognize implements spyn.Recognizer.
func (r *CatalogRecognizer) Recognize(ctx context.Context, sample []byte, rc spyn.RecognitionContext) (*spyn.RecognitionResult, error) {
	res, err := r.acr.Identify(ctx, sample)
	if err != nil {
		return nil, err
	}
	if !res.Identified || res.Track == nil {
		return &spyn.RecognitionResult{}, nil
	}

	out := &spyn.RecognitionResult{
		Identified:   true,
		Track:        res.Track,
		PlayOffsetMS: res.PlayOffsetMS,
	}

	catalog, err := r.store.FindTrackByIdentity(ctx, res.Track.Title, res.Track.Artist)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Identified but not a SPYNNERS track.
			return out, nil
		}
		return nil, err
	}

	out.InCatalog = true
	out.Track.ProducerID = catalog.UploadedBy
	if out.Track.Genre == "" {
		out.Track.Genre = catalog.Genre
	}
	if catalog.ArtworkURL != "" {
		out.Track.CoverImageURL = catalog.ArtworkURL
	}
	return out, nil
}
