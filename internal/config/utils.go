// SPDX-FileCopyrightText: 2025 ArvoBill
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/arvobill/installer/internal"
)

func SerializeToYAML(config any) ([]byte, error) {
	k := koanf.New(".")
	// NOTE: Set parser to nil since we don't need to parse go struct
	err := k.Load(structs.Provider(config, "yaml"), nil)
	if err != nil {
		return nil, err
	}
	return k.Marshal(yaml.Parser())
}

func DeserializeFromYAML(config any, data []byte) error {
	v := koanf.New(".")

	err := v.Load(rawbytes.Provider(data), yaml.Parser())
	if err != nil {
		return err
	}
	return v.UnmarshalWithConf("", config, koanf.UnmarshalConf{
		Tag: "yaml",
	})
}

// UpdateRuntimeState merges the state returned by a step back into the
// run-wide state.
func UpdateRuntimeState(dest *RuntimeState, source RuntimeState) *internal.InstallerError {
	srcK := koanf.New(".")
	srcK.Load(structs.Provider(source, "yaml"), nil)
	dstK := koanf.New(".")
	dstK.Load(structs.Provider(dest, "yaml"), nil)
	dstK.Merge(srcK)

	dstData, err := dstK.Marshal(yaml.Parser())
	if err != nil {
		return &internal.InstallerError{
			ErrorCode: internal.InstallerErrorCodeInternal,
			ErrorMsg:  fmt.Sprintf("failed to marshal runtime state: %v", err),
		}
	}

	if err := DeserializeFromYAML(dest, dstData); err != nil {
		return &internal.InstallerError{
			ErrorCode: internal.InstallerErrorCodeInternal,
			ErrorMsg:  fmt.Sprintf("failed to unmarshal runtime state: %v", err),
		}
	}
	return nil
}
