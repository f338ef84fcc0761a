// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/jonpugh/ash/internal/alias"
	"github.com/jonpugh/ash/internal/container"
	"github.com/jonpugh/ash/internal/dispatch"
	"github.com/jonpugh/ash/internal/issue"
	"github.com/jonpugh/ash/internal/provision"
)

// classifyError wraps err with operation context and maps it to an issue
// catalog entry. Errors that are already ServiceErrors or ExitErrors pass
// through unchanged.
func classifyError(err error, operation, resource string, verbose bool) error {
	if err == nil {
		return nil
	}
	var svcErr *ServiceError
	var exitErr *ExitError
	if errors.As(err, &svcErr) || errors.As(err, &exitErr) {
		return err
	}

	var built *issue.ActionableError
	if errors.As(err, &built) && built.IssueID != 0 {
		return newServiceError(built, built.IssueID, styledError(built, verbose))
	}

	if operation == "" {
		operation = "run command"
	}
	ec := issue.NewErrorContext().WithOperation(operation).WithResource(resource).Wrap(err)

	var (
		notFound    *alias.NotFoundError
		invalid     *alias.InvalidDefinitionError
		unreachable *dispatch.RemoteUnreachableError
	)
	switch {
	case errors.As(err, &notFound) && notFound.Key != "":
		ec.WithIssue(issue.AliasKeyNotFoundId).
			WithSuggestion(fmt.Sprintf("Run 'ash get %s' to see every key", notFound.Name))
	case errors.As(err, &notFound):
		ec.WithIssue(issue.AliasNotFoundId)
		for _, s := range notFound.Suggestions {
			ec.WithSuggestion("Did you mean " + s + "?")
		}
		if len(notFound.Suggestions) == 0 {
			ec.WithSuggestion("Run 'ash list' to see the aliases ash can find")
		}
	case errors.As(err, &invalid):
		ec.WithIssue(issue.InvalidAliasDefinitionId)
		if invalid.Path != "" {
			ec.WithSuggestion("Fix the alias in " + invalid.Path)
		}
	case errors.Is(err, alias.ErrAliasFileExists):
		ec.WithIssue(issue.AliasFileExistsId).WithSuggestion("Pass --force to overwrite it")
	case errors.Is(err, container.ErrNoEngineAvailable):
		ec.WithIssue(issue.ContainerEngineNotFoundId)
	case errors.As(err, &unreachable):
		ec.WithIssue(issue.RemoteUnreachableId).
			WithSuggestion(fmt.Sprintf("Check that 'ssh %s' works from this machine", unreachable.Address()))
	case errors.Is(err, dispatch.ErrLaunch):
		ec.WithIssue(issue.LaunchFailedId)
	case errors.Is(err, provision.ErrNotLocal), errors.Is(err, provision.ErrNoRemote), errors.Is(err, provision.ErrReferenceNotFound):
		ec.WithIssue(issue.SiteInitFailedId)
	case errors.Is(err, os.ErrPermission):
		ec.WithIssue(issue.PermissionDeniedId)
	}

	ae := ec.Build()
	return newServiceError(ae, ae.IssueID, styledError(ae, verbose))
}

func styledError(ae *issue.ActionableError, verbose bool) string {
	return fmt.Sprintf("%s %s\n", ErrorStyle.Render("Error:"), ae.Format(verbose))
}

// formatErrorForDisplay formats an error for user display. ActionableErrors
// use their own formatting; verbose mode adds the error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}
