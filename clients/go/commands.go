package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/eldtechnologies/omnidesk/clients/go/omnidesk"
)

var (
	loginEmail    string
	loginPassword string
	listPlatform  string
	aiMaxTurns    int
)

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "operator email")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "password (read from stdin when omitted)")
	_ = loginCmd.MarkFlagRequired("email")

	conversationsCmd.Flags().StringVarP(&listPlatform, "platform", "p", "", "only list one channel")

	aiTestCmd.Flags().IntVar(&aiMaxTurns, "max-turns", 0, "keep at most this many turns (0 keeps all)")
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), cfg.Timeout+5*time.Second)
}

func platformArg(s string) (omnidesk.Platform, error) {
	p, ok := omnidesk.ParsePlatform(strings.ToLower(s))
	if !ok {
		return "", fmt.Errorf("unknown platform %q (want whatsapp, instagram or messenger)", s)
	}
	return p, nil
}

func channelArg(s string) (omnidesk.Channel, error) {
	p, err := platformArg(s)
	if err != nil {
		return nil, err
	}
	return client.Channel(p)
}

// explain turns SDK errors into operator hints.
func explain(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, omnidesk.ErrNotAuthenticated), omnidesk.IsUnauthorized(err):
		return fmt.Errorf("%w (run 'omnidesk login')", err)
	case errors.Is(err, omnidesk.ErrTimeout):
		return fmt.Errorf("%w (is %s reachable?)", err, cfg.APIURL)
	}
	return err
}

// readPassword prompts on stderr. Input is masked on a terminal and read
// as a plain line when piped.
func readPassword() (string, error) {
	fmt.Fprint(os.Stderr, "Password: ")
	if fd := int(os.Stdin.Fd()); term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		return string(b), err
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store the session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		password := loginPassword
		if password == "" {
			var err error
			if password, err = readPassword(); err != nil {
				return fmt.Errorf("read password: %w", err)
			}
		}

		ctx, cancel := commandContext(cmd)
		defer cancel()

		resp, err := client.Auth.Login(ctx, loginEmail, password)
		if err != nil {
			return explain(err)
		}
		fmt.Printf("%s logged in as %s (%s)\n", successStyle.Render("✓"), resp.User.Name, resp.User.Email)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Revoke the token and forget the session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !client.Session.IsAuthenticated() {
			fmt.Println(mutedStyle.Render("not logged in"))
			return nil
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		err := client.Auth.Logout(ctx)
		fmt.Printf("%s logged out\n", successStyle.Render("✓"))
		if err != nil {
			fmt.Fprintln(os.Stderr, mutedStyle.Render("backend logout failed: "+err.Error()))
		}
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in operator",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		user, err := client.Auth.Me(ctx)
		if err != nil {
			return explain(err)
		}
		if asJSON {
			printJSON(user)
			return nil
		}
		fmt.Printf("%s <%s> role=%s\n", user.Name, user.Email, user.Role)
		return nil
	},
}

var conversationsCmd = &cobra.Command{
	Use:     "conversations",
	Aliases: []string{"ls"},
	Short:   "List conversations across channels",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var filter omnidesk.Platform
		if listPlatform != "" {
			p, err := platformArg(listPlatform)
			if err != nil {
				return err
			}
			filter = p
		}

		ctx, cancel := commandContext(cmd)
		defer cancel()

		convs, err := client.Aggregator.ListAll(ctx, filter)
		if err != nil {
			return explain(err)
		}
		if asJSON {
			printJSON(convs)
			return nil
		}
		printConversations(convs)
		return nil
	},
}

var messagesCmd = &cobra.Command{
	Use:   "messages <platform> <customer-id>",
	Short: "Show a conversation's messages, oldest first",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := platformArg(args[0])
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		msgs, err := client.Aggregator.Messages(ctx, p, args[1])
		if err != nil {
			return explain(err)
		}
		if asJSON {
			printJSON(msgs)
			return nil
		}
		printMessages(msgs)
		return nil
	},
}

var sendCmd = &cobra.Command{
	Use:   "send <platform> <customer-id> <text...>",
	Short: "Send a message to a customer",
	Args:  cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := platformArg(args[0])
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		res, err := client.Aggregator.Send(ctx, p, args[1], strings.Join(args[2:], " "))
		if err != nil {
			return explain(err)
		}
		if asJSON {
			printJSON(res)
			return nil
		}
		fmt.Printf("%s sent %s\n", successStyle.Render("✓"), mutedStyle.Render(res.MessageID))
		return nil
	},
}

var settingsCmd = &cobra.Command{
	Use:   "settings <platform>",
	Short: "Show a channel's account settings",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ch, err := channelArg(args[0])
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		s, err := ch.Settings(ctx)
		if err != nil {
			return explain(err)
		}
		if asJSON {
			os.Stdout.Write(s.Raw)
			fmt.Println()
			return nil
		}
		fmt.Printf("%s account=%s id=%s connected=%t auto_reply=%t\n",
			platformLabel(s.Platform), s.AccountName, s.AccountID, s.Connected, s.AutoReply)
		return nil
	},
}

var testConnectionCmd = &cobra.Command{
	Use:   "test-connection <platform>",
	Short: "Ask the backend to probe a channel account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ch, err := channelArg(args[0])
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		st, err := ch.TestConnection(ctx)
		if err != nil {
			return explain(err)
		}
		if st.OK {
			fmt.Println(successStyle.Render("✓"), st.Message)
			return nil
		}
		fmt.Println(errorStyle.Render("✗"), st.Message)
		return nil
	},
}

var automationCmd = &cobra.Command{
	Use:       "automation <platform> <customer-id> on|off",
	Short:     "Switch automated replies for one customer",
	Args:      cobra.ExactArgs(3),
	ValidArgs: []string{"on", "off"},
	RunE: func(cmd *cobra.Command, args []string) error {
		ch, err := channelArg(args[0])
		if err != nil {
			return err
		}
		var enabled bool
		switch args[2] {
		case "on":
			enabled = true
		case "off":
		default:
			return fmt.Errorf("want on or off, got %q", args[2])
		}

		ctx, cancel := commandContext(cmd)
		defer cancel()

		if err := ch.SetAutomation(ctx, args[1], enabled); err != nil {
			return explain(err)
		}
		fmt.Printf("%s automation %s for %s\n", successStyle.Render("✓"), args[2], args[1])
		return nil
	},
}

var aiTestCmd = &cobra.Command{
	Use:   "ai-test <customer-id>",
	Short: "Chat with the AI reply generator as a customer",
	Long: `Start an interactive dialogue with the backend's AI reply generator.

Each line is sent as the customer's message. Commands:
  /reset   clear the transcript
  /quit    leave`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var opts []omnidesk.HarnessOption
		if aiMaxTurns > 0 {
			opts = append(opts, omnidesk.WithMaxTurns(aiMaxTurns))
		}
		h := client.NewHarness(args[0], opts...)

		fmt.Println(headerStyle.Render("AI test for " + h.CustomerID()))
		fmt.Println(mutedStyle.Render("type /quit to leave, /reset to start over"))

		scanner := bufio.NewScanner(os.Stdin)
		for {
			fmt.Print(userStyle.Render("you> "))
			if !scanner.Scan() {
				fmt.Println()
				return scanner.Err()
			}
			line := strings.TrimSpace(scanner.Text())
			switch line {
			case "":
				continue
			case "/quit", "/exit":
				return nil
			case "/reset":
				h.Reset()
				fmt.Println(mutedStyle.Render("transcript cleared"))
				continue
			}

			ctx, cancel := commandContext(cmd)
			turn := h.Send(ctx, line)
			cancel()
			printTurn(turn)
		}
	},
}
