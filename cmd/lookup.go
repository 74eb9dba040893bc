package cmd

import (
	"errors"
	"sort"

	"github.com/dfornika/irida/internal/remote"
	"github.com/dfornika/irida/internal/resolver"
	"github.com/dfornika/irida/types"
	"github.com/spf13/cobra"
)

var lookupByID bool

func init() {
	rootCmd.AddCommand(lookupCmd)
	lookupCmd.AddCommand(lookupUserCmd, lookupRoleCmd, lookupLibraryCmd, lookupFolderCmd)

	lookupLibraryCmd.Flags().BoolVar(&lookupByID, "id", false, "Treat the argument as a library id instead of a name")
}

var lookupCmd = &cobra.Command{
	Use:   "lookup",
	Short: "Find users, roles, libraries and library folders on the Galaxy server",
}

func newResolver() *resolver.Resolver {
	return resolver.New(loadDependencies().Galaxy)
}

var lookupUserCmd = &cobra.Command{
	Use:   "user <email>",
	Short: "Find the Galaxy account with an email address",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		out := newConsole()
		user, err := newResolver().FindUserByEmail(cmd.Context(), types.AccountEmail(args[0]))
		cobra.CheckErr(err)

		out.Info("✓ user %s: %s (%s)", user.ID, user.Email, user.Username)
		cobra.CheckErr(out.Json(user))
	},
}

var lookupRoleCmd = &cobra.Command{
	Use:   "role <email>",
	Short: "Find the private role of a Galaxy account",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		out := newConsole()
		role, err := newResolver().FindRoleByEmail(cmd.Context(), types.AccountEmail(args[0]))
		cobra.CheckErr(err)

		out.Info("✓ role %s: %s [%s]", role.ID, role.Name, role.Type)
		cobra.CheckErr(out.Json(role))
	},
}

var lookupLibraryCmd = &cobra.Command{
	Use:   "library <name>",
	Short: "Find data libraries by name, or by id with --id",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		out := newConsole()
		res := newResolver()

		var libs []remote.Library
		if lookupByID {
			lib, err := res.FindLibraryByID(cmd.Context(), args[0])
			cobra.CheckErr(err)
			libs = []remote.Library{lib}
		} else {
			found, err := res.FindLibrariesByName(cmd.Context(), types.LibraryName(args[0]))
			cobra.CheckErr(err)
			libs = found
		}

		for _, lib := range libs {
			out.Info("✓ library %s: %s", lib.ID, lib.Name)
		}
		cobra.CheckErr(out.Json(libs))
	},
}

var lookupFolderCmd = &cobra.Command{
	Use:   "folder <library-id> [path]",
	Short: "Show a library folder, or list every folder and file of a library",
	Args:  cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		out := newConsole()
		res := newResolver()

		if len(args) == 2 {
			folder, err := res.FindFolderByPath(cmd.Context(), args[0], args[1])
			if errors.Is(err, resolver.ErrNoContentFound) {
				out.Error("no folder %q in library %s", args[1], args[0])
			}
			cobra.CheckErr(err)
			out.Info("✓ folder %s: %s", folder.ID, folder.Name)
			cobra.CheckErr(out.Json(folder))
			return
		}

		contents, err := res.LibraryContentByName(cmd.Context(), args[0])
		cobra.CheckErr(err)

		names := make([]string, 0, len(contents))
		for name := range contents {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			out.Info("%-6s %s  %s", contents[name].Type, contents[name].ID, name)
		}
		cobra.CheckErr(out.Json(contents))
	},
}
