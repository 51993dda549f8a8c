// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package registration

import (
	"context"
	"time"

	"github.com/danielhkuo/trustvote/models"
)

// VoterRegistrar is the part of the remote facade registration needs
type VoterRegistrar interface {
	RegisterVoter(ctx context.Context, req models.RegisterVoterRequest) error
}

// RemoteSubmitter sends registrations to the election API
type RemoteSubmitter struct {
	Registrar VoterRegistrar
}

func (s RemoteSubmitter) Submit(ctx context.Context, address string, d Draft) error {
	req := models.RegisterVoterRequest{
		WalletAddress: address,
		FullName:      d.FullName,
		VoterID:       d.VoterID,
		Birthdate:     d.Birthdate,
	}
	if d.IDImage != nil {
		req.IDImage = d.IDImage.Data
		req.IDImageType = d.IDImage.ContentType
	}
	if d.FaceImage != nil {
		req.FaceImage = d.FaceImage.Data
		req.FaceImageType = d.FaceImage.ContentType
	}
	return s.Registrar.RegisterVoter(ctx, req)
}

// SimulatedSubmitter accepts every registration after a delay. Demo mode
// only.
type SimulatedSubmitter struct {
	Delay time.Duration
}

func (s SimulatedSubmitter) Submit(ctx context.Context, _ string, _ Draft) error {
	if s.Delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(s.Delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
