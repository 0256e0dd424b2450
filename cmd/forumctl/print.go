package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/garnizeh/campusfeed/internal/views"
	"github.com/garnizeh/campusfeed/pkg/models"
)

const bodyWidth = 60

func clip(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > bodyWidth {
		return string(r[:bodyWidth-1]) + "…"
	}
	return s
}

func name(a models.Author) string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

func when(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func printPosts(w io.Writer, posts []views.PostItem) {
	if len(posts) == 0 {
		fmt.Fprintln(w, "No posts yet.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tAUTHOR\tWHEN\tLIKES\tREPLIES\tBODY")
	for _, p := range posts {
		likes := fmt.Sprint(p.LikeCount)
		if p.IsLikedByCurrentUser {
			likes += "*"
		}
		author := name(p.Author)
		if p.IsOwnPost {
			author += " (you)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n", p.ID, author, when(p.CreatedAt), likes, p.ReplyCount, clip(p.Body))
	}
	tw.Flush()
}

func printReplies(w io.Writer, replies []views.ReplyItem) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, r := range replies {
		author := name(r.Author)
		if r.IsOwnReply {
			author += " (you)"
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", r.ID, author, when(r.CreatedAt), clip(r.Body))
	}
	tw.Flush()
}

func printSectionError(w io.Writer, what string, st views.Status) bool {
	if st.Error == "" {
		return false
	}
	fmt.Fprintf(w, "Could not load %s: %s\n", what, st.Error)
	return true
}

func printThread(w io.Writer, s views.ThreadSnapshot) {
	if s.Post == nil {
		fmt.Fprintln(w, "Post not found.")
		return
	}
	p := s.Post
	fmt.Fprintf(w, "%s by %s, %s\n\n%s\n\n%d likes, %d replies\n", p.ID, name(p.Author), when(p.CreatedAt), p.Body, p.LikeCount, p.ReplyCount)
	if printSectionError(w, "replies", s.RepliesStatus) {
		return
	}
	printReplies(w, s.Replies)
}

func printDashboard(w io.Writer, s views.DashboardSnapshot) {
	fmt.Fprintln(w, "Your posts")
	printPosts(w, s.Posts)
	if !s.ShowReplies {
		return
	}
	fmt.Fprintln(w, "\nYour recent replies")
	if printSectionError(w, "replies", s.RepliesStatus) {
		return
	}
	if len(s.Replies) == 0 {
		fmt.Fprintln(w, "  none")
		return
	}
	printReplies(w, s.Replies)
}

func printProfile(w io.Writer, s views.ProfileSnapshot) {
	p := s.Profile
	if p == nil {
		fmt.Fprintln(w, "Profile not found.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	row := func(k, v string) {
		if v != "" {
			fmt.Fprintf(tw, "%s\t%s\n", k, v)
		}
	}
	row("Name", strings.TrimSpace(p.FirstName+" "+p.LastName))
	row("Role", string(p.Role))
	row("Email", p.Email)
	row("Department", p.Department)
	row("Campus", p.Campus)
	row("Batch", p.Batch)
	row("Graduated", p.GraduationYear)
	if p.Role == models.RoleAlumni {
		row("Company", p.CurrentCompany)
		row("Position", p.CurrentPosition)
		row("Location", strings.Trim(p.CurrentCity+", "+p.CurrentCountry, ", "))
		row("LinkedIn", p.LinkedIn)
		skills := make([]string, 0, len(p.Skills))
		for _, sk := range p.Skills {
			skills = append(skills, sk.Name)
		}
		row("Skills", strings.Join(skills, ", "))
		for _, e := range p.PreviousExperiences {
			row("Previously", fmt.Sprintf("%s at %s (%s to %s)", e.Position, e.Company, e.From, e.To))
		}
	}
	tw.Flush()

	fmt.Fprintln(w)
	if printSectionError(w, "posts", s.PostsStatus) {
		return
	}
	printPosts(w, s.Posts)
}
