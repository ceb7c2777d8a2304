// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/luxfi/dicemesh/internal/xcrypto"
)

func runKeygen(cmd *cobra.Command, args []string) error {
	priv, err := xcrypto.GenerateKey()
	if err != nil {
		return err
	}
	fmt.Printf("peer_id: %s\n", priv.PeerId().String())
	fmt.Printf("public_key: %s\n", hex.EncodeToString(priv.PublicKeyBytes()))
	return nil
}
