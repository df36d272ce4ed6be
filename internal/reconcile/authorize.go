package reconcile

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// ConfirmToken is the literal token that authorizes a destructive phase.
const ConfirmToken = "YES"

// Authorizer gates the destructive phase of a pass. Authorize describes the
// effect about to happen and reports whether the caller approved it. The
// accepted list extends the tokens treated as approval; ConfirmToken is
// always accepted.
type Authorizer interface {
	Authorize(ctx context.Context, effect string, accepted ...string) (bool, error)
}

type forceAuthorizer struct{}

func (forceAuthorizer) Authorize(context.Context, string, ...string) (bool, error) {
	return true, nil
}

// Force returns an authorizer that approves everything. Used by
// non-interactive runs that pass an explicit force flag.
func Force() Authorizer { return forceAuthorizer{} }

type staticAuthorizer struct {
	token string
}

func (a staticAuthorizer) Authorize(_ context.Context, _ string, accepted ...string) (bool, error) {
	return tokenAccepted(a.token, accepted), nil
}

// StaticToken returns an authorizer that compares a pre-supplied token
// against the accepted set. This is the non-interactive path: the token is a
// capability handed in by the caller, not read from a terminal.
func StaticToken(token string) Authorizer {
	return staticAuthorizer{token: token}
}

type promptAuthorizer struct {
	in  *bufio.Reader
	out io.Writer
}

// Prompt returns an authorizer that prints the effect description and reads
// one line from in.
func Prompt(in io.Reader, out io.Writer) Authorizer {
	return &promptAuthorizer{in: bufio.NewReader(in), out: out}
}

func (a *promptAuthorizer) Authorize(_ context.Context, effect string, accepted ...string) (bool, error) {
	fmt.Fprintf(a.out, "%s\nType %q to proceed: ", effect, ConfirmToken)
	line, err := a.in.ReadString('\n')
	if err != nil && line == "" {
		return false, fmt.Errorf("reading confirmation: %w", err)
	}
	return tokenAccepted(strings.TrimSpace(line), accepted), nil
}

func tokenAccepted(token string, accepted []string) bool {
	if token == ConfirmToken {
		return true
	}
	for _, ok := range accepted {
		if token == ok {
			return true
		}
	}
	return false
}
