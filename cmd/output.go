// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/xataio/ftsearch/internal/json"
)

const trueStr = "true"

type printer interface {
	PrettyPrint() (string, error)
}

func jsonOutput(cmd *cobra.Command) bool {
	f := cmd.Flags().Lookup("json")
	return f != nil && f.Value.String() == trueStr
}

// print writes the pretty representation of p, or its indented JSON form
// when the json flag is set.
func print(cmd *cobra.Command, p printer) error {
	return fprint(cmd.OutOrStdout(), jsonOutput(cmd), p)
}

func fprint(w io.Writer, asJSON bool, p printer) error {
	var str string
	if asJSON {
		jsonData, err := json.MarshalIndent(p)
		if err != nil {
			return err
		}
		str = string(jsonData)
	} else {
		var err error
		if str, err = p.PrettyPrint(); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintln(w, str)
	return err
}
