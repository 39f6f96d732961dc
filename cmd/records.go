package main

import (
	"encoding/json"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/carepilot/docintel/internal/model"
	"github.com/carepilot/docintel/internal/store"
)

var (
	recordsUser  string
	recordsType  string
	recordsDoc   string
	recordsLimit int
)

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "List and inspect extraction records",
}

var recordsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List extraction records",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		records, err := st.ListRecords(ctx, store.RecordFilter{
			UserID:     recordsUser,
			DocType:    model.DocumentType(recordsType),
			DocumentID: recordsDoc,
			Limit:      recordsLimit,
		})
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		defer w.Flush()
		w.Write([]byte("ID\tUSER\tTYPE\tDOCUMENT\tMISSING\tEXTRACTED\n"))
		for _, r := range records {
			line := r.ID + "\t" + r.UserID + "\t" + string(r.DocType) + "\t" +
				r.DocumentID + "\t"
			if len(r.Missing) == 0 {
				line += "-"
			} else {
				line += r.Missing[0]
			}
			line += "\t" + r.ExtractedDate.Format("2006-01-02 15:04") + "\n"
			w.Write([]byte(line))
		}
		return nil
	},
}

var recordsShowCmd = &cobra.Command{
	Use:   "show <record-id>",
	Short: "Print one record as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		rec, err := st.GetRecord(ctx, args[0])
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	},
}

func init() {
	recordsListCmd.Flags().StringVar(&recordsUser, "user", "", "filter by user id")
	recordsListCmd.Flags().StringVar(&recordsType, "type", "", "filter by document type")
	recordsListCmd.Flags().StringVar(&recordsDoc, "doc", "", "filter by document id")
	recordsListCmd.Flags().IntVar(&recordsLimit, "limit", 0, "max records (default 100)")
	recordsCmd.AddCommand(recordsListCmd)
	recordsCmd.AddCommand(recordsShowCmd)
	rootCmd.AddCommand(recordsCmd)
}
