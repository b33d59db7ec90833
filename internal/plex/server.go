// Plexrec - Personal Media Suggestions for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexrec

package plex

import (
	"context"
	"fmt"
	"net/url"
)

// webAppURL is the hosted Plex Web app used for item links.
const webAppURL = "https://app.plex.tv/desktop/#!/server"

// Identity retrieves basic server identity without requiring a valid token.
// Endpoint: GET /identity
func (c *Client) Identity(ctx context.Context) (*IdentityResponse, error) {
	var resp IdentityResponse
	if err := c.doJSONRequest(ctx, "/identity", nil, &resp); err != nil {
		return nil, fmt.Errorf("get server identity: %w", err)
	}
	return &resp, nil
}

// MachineIdentifier returns the server's machine identifier, fetched once
// and cached for the lifetime of the client.
func (c *Client) MachineIdentifier(ctx context.Context) (string, error) {
	c.machineMu.Lock()
	defer c.machineMu.Unlock()

	if c.machineID != "" {
		return c.machineID, nil
	}

	identity, err := c.Identity(ctx)
	if err != nil {
		return "", err
	}
	if identity.MediaContainer.MachineIdentifier == "" {
		return "", fmt.Errorf("get server identity: empty machine identifier")
	}

	c.machineID = identity.MediaContainer.MachineIdentifier
	c.logger.Debug().
		Str("machine_id", c.machineID).
		Str("version", identity.MediaContainer.Version).
		Msg("Resolved Plex server identity")
	return c.machineID, nil
}

// WebLink returns the Plex Web URL of an item's details page.
func WebLink(machineID, ratingKey string) string {
	return fmt.Sprintf("%s/%s/details?key=%s", webAppURL, machineID,
		url.QueryEscape("/library/metadata/"+ratingKey))
}
