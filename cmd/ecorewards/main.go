// Command ecorewards scores products for sustainability and runs the
// EcoCoin rewards wallet.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/kanakmaheshwari3115/AmazonHackon/internal/api"
	"github.com/kanakmaheshwari3115/AmazonHackon/internal/cli"
)

func main() {
	if err := cli.Execute(context.Background(), api.Version); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
