package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/garnizeh/campusfeed/internal/profileform"
	"github.com/garnizeh/campusfeed/internal/validation"
	"github.com/garnizeh/campusfeed/internal/views"
	"github.com/garnizeh/campusfeed/pkg/models"
)

func (a *app) signinCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "signin",
		Short: "Sign in and store the session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("CAMPUSFEED_PASSWORD")
			}
			tok, err := a.client.SignIn(cmd.Context(), email, password)
			if err != nil {
				return fmt.Errorf("sign in: %w", err)
			}
			if err := a.writeToken(tok); err != nil {
				return fmt.Errorf("store token: %w", err)
			}
			id, err := a.identity(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s %s (%s)\n", id.FirstName, id.LastName, id.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password (or CAMPUSFEED_PASSWORD)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func (a *app) signoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "signout",
		Short: "Forget the stored session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := os.Remove(a.tokenFile); err != nil && !os.IsNotExist(err) {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

// postList mounts the global feed for the signed-in user.
func (a *app) postList(ctx context.Context) (*views.PostList, error) {
	id, err := a.identity(ctx)
	if err != nil {
		return nil, err
	}
	opts, err := a.viewOptions()
	if err != nil {
		return nil, err
	}
	l := views.NewPostList(a.client, id, opts...)
	if err := l.Mount(ctx); err != nil {
		l.Close()
		return nil, err
	}
	return l, nil
}

func (a *app) thread(ctx context.Context, postID string) (*views.Thread, error) {
	id, err := a.identity(ctx)
	if err != nil {
		return nil, err
	}
	opts, err := a.viewOptions()
	if err != nil {
		return nil, err
	}
	t := views.NewThread(a.client, id, postID, opts...)
	if err := t.Mount(ctx); err != nil {
		t.Close()
		return nil, err
	}
	return t, nil
}

func (a *app) postsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "posts",
		Aliases: []string{"ls"},
		Short:   "List the latest posts",
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := a.postList(cmd.Context())
			if err != nil {
				return err
			}
			defer l.Close()
			printPosts(cmd.OutOrStdout(), l.Snapshot().Posts)
			return nil
		},
	}
}

func (a *app) postCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "post <body>",
		Short: "Publish a new post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := a.postList(cmd.Context())
			if err != nil {
				return err
			}
			defer l.Close()
			p, err := l.CreatePost(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Posted %s\n", p.ID)
			return nil
		},
	}
}

func (a *app) likeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "like <post-id>",
		Short: "Like a post, or remove your like",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := a.postList(cmd.Context())
			if err != nil {
				return err
			}
			defer l.Close()
			if err := l.ToggleLike(cmd.Context(), args[0]); err != nil {
				return err
			}
			for _, p := range l.Snapshot().Posts {
				if p.ID == args[0] {
					verb := "Unliked"
					if p.IsLikedByCurrentUser {
						verb = "Liked"
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%d likes)\n", verb, p.ID, p.LikeCount)
				}
			}
			return nil
		},
	}
}

func (a *app) threadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "thread <post-id>",
		Short: "Show a post with its replies",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.thread(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer t.Close()
			printThread(cmd.OutOrStdout(), t.Snapshot())
			return nil
		},
	}
}

func (a *app) replyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reply <post-id> <body>",
		Short: "Reply to a post",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.thread(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer t.Close()
			r, err := t.CreateReply(cmd.Context(), args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Replied %s (%d replies)\n", r.ID, t.Snapshot().Post.ReplyCount)
			return nil
		},
	}
}

func (a *app) deleteCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <post-id>",
		Short: "Delete one of your posts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := a.postList(cmd.Context())
			if err != nil {
				return err
			}
			defer l.Close()
			if err := l.RequestDelete(args[0]); err != nil {
				return err
			}
			if !yes && !a.confirmPrompt(cmd, fmt.Sprintf("Delete post %s?", args[0])) {
				l.CancelDelete()
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")
				return nil
			}
			if err := l.ConfirmDelete(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func (a *app) deleteReplyCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete-reply <post-id> <reply-id>",
		Short: "Delete one of your replies",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.thread(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer t.Close()
			if err := t.RequestDeleteReply(args[1]); err != nil {
				return err
			}
			if !yes && !a.confirmPrompt(cmd, fmt.Sprintf("Delete reply %s?", args[1])) {
				t.CancelDeleteReply()
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")
				return nil
			}
			if err := t.ConfirmDeleteReply(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted reply %s\n", args[1])
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func (a *app) dashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show your own posts, and your recent replies if you are alumni",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := a.identity(cmd.Context())
			if err != nil {
				return err
			}
			opts, err := a.viewOptions()
			if err != nil {
				return err
			}
			d := views.NewDashboard(a.client, id, opts...)
			defer d.Close()
			if err := d.Mount(cmd.Context()); err != nil {
				return err
			}
			printDashboard(cmd.OutOrStdout(), d.Snapshot())
			return nil
		},
	}
}

func (a *app) profileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or edit profiles",
	}
	cmd.AddCommand(a.profileShowCmd(), a.profileEditCmd())
	return cmd
}

func (a *app) profileShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [user-id]",
		Short: "Show a profile with its posts (defaults to your own)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := a.identity(cmd.Context())
			if err != nil {
				return err
			}
			userID := id.UserID
			if len(args) == 1 {
				userID = args[0]
			}
			opts, err := a.viewOptions()
			if err != nil {
				return err
			}
			f := views.NewProfileFeed(a.client, id, userID, opts...)
			defer f.Close()
			if err := f.Mount(cmd.Context()); err != nil {
				return err
			}
			printProfile(cmd.OutOrStdout(), f.Snapshot())
			return nil
		},
	}
}

type profileFlags struct {
	firstName, lastName, phone, picture string
	company, position, city, country    string
	linkedin                            string
	addSkills                           []string
	removeSkills                        []string
}

func (a *app) profileEditCmd() *cobra.Command {
	var pf profileFlags
	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Edit your own profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			rules, err := validation.NewRuleSet()
			if err != nil {
				return err
			}
			form := profileform.New(a.client, rules)
			if err := form.Load(cmd.Context()); err != nil {
				return err
			}
			if err := applyProfileFlags(cmd, form, pf); err != nil {
				return err
			}

			saved, err := form.Submit(cmd.Context())
			var verr *profileform.ValidationError
			switch {
			case errors.As(err, &verr):
				for _, v := range verr.Violations {
					fmt.Fprintf(cmd.ErrOrStderr(), "  %s: %s\n", v.Field, v.Message)
				}
				return err
			case errors.Is(err, profileform.ErrNotDirty):
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to change")
				return nil
			case err != nil:
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved profile for %s %s\n", saved.FirstName, saved.LastName)
			return nil
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&pf.firstName, "first-name", "", "First name")
	fl.StringVar(&pf.lastName, "last-name", "", "Last name")
	fl.StringVar(&pf.phone, "phone", "", "Phone number")
	fl.StringVar(&pf.picture, "picture", "", "Profile picture URL")
	fl.StringVar(&pf.company, "company", "", "Current company (alumni)")
	fl.StringVar(&pf.position, "position", "", "Current position (alumni)")
	fl.StringVar(&pf.city, "city", "", "Current city (alumni)")
	fl.StringVar(&pf.country, "country", "", "Current country (alumni)")
	fl.StringVar(&pf.linkedin, "linkedin", "", "LinkedIn URL (alumni)")
	fl.StringSliceVar(&pf.addSkills, "add-skill", nil, "Skill to add (alumni, repeatable)")
	fl.StringSliceVar(&pf.removeSkills, "remove-skill", nil, "Skill to remove (alumni, repeatable)")
	return cmd
}

// applyProfileFlags copies only the flags that were set onto the form draft.
func applyProfileFlags(cmd *cobra.Command, form *profileform.Form, pf profileFlags) error {
	set := cmd.Flags().Changed
	alumniOnly := []string{"company", "position", "city", "country", "linkedin"}
	if form.ReadOnly().Role != models.RoleAlumni {
		for _, name := range append(alumniOnly, "add-skill", "remove-skill") {
			if set(name) {
				return fmt.Errorf("--%s: %w", name, profileform.ErrAlumniOnly)
			}
		}
	}

	err := form.Update(func(d *profileform.Draft) {
		fields := []struct {
			flag string
			dst  *string
			val  string
		}{
			{"first-name", &d.FirstName, pf.firstName},
			{"last-name", &d.LastName, pf.lastName},
			{"phone", &d.Phone, pf.phone},
			{"picture", &d.ProfilePicture, pf.picture},
			{"company", &d.CurrentCompany, pf.company},
			{"position", &d.CurrentPosition, pf.position},
			{"city", &d.CurrentCity, pf.city},
			{"country", &d.CurrentCountry, pf.country},
			{"linkedin", &d.LinkedIn, pf.linkedin},
		}
		for _, f := range fields {
			if set(f.flag) {
				*f.dst = f.val
			}
		}
	})
	if err != nil {
		return err
	}

	for _, name := range pf.removeSkills {
		for i, s := range form.Draft().Skills {
			if s.Name == name {
				if err := form.RemoveSkill(i); err != nil {
					return err
				}
				break
			}
		}
	}
	for _, name := range pf.addSkills {
		if err := form.AddSkill(name); err != nil {
			return err
		}
	}
	return nil
}
