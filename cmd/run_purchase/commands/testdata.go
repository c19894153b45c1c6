package commands

import (
	"log/slog"
	"purchase-automation/internal/purchase"
	"purchase-automation/lib/datafile"
	"purchase-automation/lib/fakedata"
	"purchase-automation/lib/serviceutil"

	"github.com/spf13/cobra"
)

var testDataOut *string

func init() {
	testDataOut = testDataCmd.Flags().String("out", "data/test_data.json", "Where the test data is written.")
	rootCmd.AddCommand(testDataCmd)
}

var testDataCmd = &cobra.Command{
	Use:   "testdata [--out <path>]",
	Short: "Generates a fake buyer with a test payment card.",
	Run: func(cmd *cobra.Command, args []string) {
		data, err := purchase.GenerateTestData(fakedata.New(nil))
		if err != nil {
			serviceutil.Fatal("failed to generate test data", err)
		}
		err = datafile.WriteJSON(*testDataOut, data)
		if err != nil {
			serviceutil.Fatal("failed to write test data", err)
		}
		slog.Info("test data written", "path", *testDataOut, "email", data.User.Email)
	},
}
