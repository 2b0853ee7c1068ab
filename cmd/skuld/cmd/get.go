package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ssargent/skulddb/pkg/codec"
	"github.com/ssargent/skulddb/pkg/engine"
	"github.com/ssargent/skulddb/pkg/keys"
)

// getCmd represents the get command
var getCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get one record by its full key",
	Long: `Get one record by its full key and print it in a readable form.

Example:
  skuld get todo:0c9a7b1e-...:5f3d2a88-...
  skuld get email:freyja@example.com`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		key, err := keys.FromBytes([]byte(args[0]))
		if err != nil {
			fmt.Printf("Error parsing key: %v\n", err)
			return
		}

		// Get engine from context
		eng, ok := cmd.Context().Value("engine").(*engine.Engine)
		if !ok {
			fmt.Printf("Error: engine not found in context\n")
			return
		}

		coll := eng.Collection(collectionFor(key.Kind()))
		value, err := coll.Get(key)
		if err != nil {
			fmt.Printf("Error getting record: %v\n", err)
			return
		}

		line, err := renderRecord(key, value)
		if err != nil {
			fmt.Printf("Error decoding record: %v\n", err)
			return
		}
		fmt.Println(line)
	},
}

func init() {
	rootCmd.AddCommand(getCmd)
}

func collectionFor(kind keys.Kind) string {
	switch kind {
	case keys.KindTodo:
		return engine.CollectionTodos
	case keys.KindUser:
		return engine.CollectionUsers
	case keys.KindEmail:
		return engine.CollectionEmails
	case keys.KindSession:
		return engine.CollectionSessions
	}
	return ""
}

// renderRecord decodes value according to the key's kind and formats a
// single human-readable line. Password material is never printed.
func renderRecord(key keys.Key, value []byte) (string, error) {
	switch key.Kind() {
	case keys.KindTodo:
		todo, err := codec.TodoCodec{}.Decode(value)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("todo %s completed=%t group=%q text=%q",
			todo.ID, todo.Completed, todo.Group, todo.Text), nil

	case keys.KindUser, keys.KindEmail:
		user, err := codec.UserCodec{}.Decode(value)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("user %s email=%s role=%s", user.ID, user.Email, user.Role), nil

	case keys.KindSession:
		session, err := codec.SessionCodec{}.Decode(value)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("session %s user=%s created_at=%d expires_at=%d jti=%s",
			session.ID, session.UserID, session.CreatedAt, session.ExpiresAt,
			session.CurrentRefreshJTI), nil
	}
	return "", &keys.InvalidKeyError{Raw: key.String()}
}
