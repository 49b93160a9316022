package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/edupost/edupost-client/internal/api"
	"github.com/edupost/edupost-client/internal/models"
	"github.com/edupost/edupost-client/internal/models/dto"
	"github.com/edupost/edupost-client/internal/router"
)

// enter navigates to screen. It returns false with no error when the screen
// is teacher-only and the user lacks the role; a notice is printed instead.
func (a *app) enter(screen router.Screen) (bool, error) {
	if err := a.router.Navigate(screen); err != nil {
		if errors.Is(err, router.ErrNotReachable) {
			if a.router.State() == router.Authenticated {
				return false, errors.New("already signed in; run `edupost logout` first")
			}
			return false, errors.New("not signed in; run `edupost login` first")
		}
		return false, err
	}
	if router.TeacherOnly(screen) && !router.RequireRole(a.router.User(), models.RoleTeacher) {
		fmt.Fprintln(a.out, "This area is restricted to teachers.")
		return false, nil
	}
	return true, nil
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := newFlagSet("login")
	email := fs.String("email", "", "Account email")
	password := fs.String("password", "", "Account password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := a.enter(router.Login); err != nil {
		return err
	}
	if strings.TrimSpace(*email) == "" || *password == "" {
		return errors.New("-email and -password are required")
	}

	if err := a.manager.Login(ctx, *email, *password); err != nil {
		return errors.New(api.Message(err, "Login failed"))
	}
	st := a.manager.Session().Snapshot()
	a.router.Apply(st)
	if st.User == nil {
		fmt.Fprintln(a.out, "Signed in, but the profile could not be loaded.")
		return nil
	}
	fmt.Fprintf(a.out, "Signed in as %s (%s).\n", st.User.Username, strings.Join(st.User.Roles, ", "))
	return nil
}

func (a *app) register(ctx context.Context, args []string) error {
	fs := newFlagSet("register")
	req, roles := registerFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := a.enter(router.Register); err != nil {
		return err
	}
	req.Roles = models.ParseRoles(*roles)

	if err := a.manager.Register(ctx, *req); err != nil {
		return errors.New(api.Message(err, "Registration failed"))
	}
	fmt.Fprintln(a.out, "Account created. Sign in with `edupost login`.")
	return nil
}

func (a *app) logout(ctx context.Context) error {
	a.manager.Logout(ctx)
	a.router.Apply(a.manager.Session().Snapshot())
	fmt.Fprintln(a.out, "Signed out.")
	return nil
}

func (a *app) whoami() error {
	st := a.manager.Session().Snapshot()
	return writeJSON(a.out, struct {
		State string       `json:"state"`
		User  *models.User `json:"user,omitempty"`
	}{State: a.router.State().String(), User: st.User})
}

func (a *app) posts(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("posts: expected list|search|get|create|update|delete")
	}
	sub, rest := args[0], args[1:]
	fs := newFlagSet("posts " + sub)

	switch sub {
	case "list":
		page := fs.Int("page", 1, "Page number")
		limit := fs.Int("limit", 10, "Posts per page")
		search := fs.String("search", "", "Filter by title or content")
		author := fs.String("author", "", "Filter by author id")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		if _, err := a.enter(router.PostsList); err != nil {
			return err
		}
		posts, err := a.client.ListPosts(ctx, dto.PostQuery{Page: *page, Limit: *limit, Search: *search, AuthorID: *author})
		if err != nil {
			return errors.New(api.Message(err, "Could not load posts"))
		}
		return writeJSON(a.out, posts)

	case "search":
		page := fs.Int("page", 1, "Page number")
		limit := fs.Int("limit", 10, "Posts per page")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		term := strings.TrimSpace(strings.Join(fs.Args(), " "))
		if term == "" {
			return errors.New("posts search: a search term is required")
		}
		if _, err := a.enter(router.PostsList); err != nil {
			return err
		}
		posts, err := a.client.SearchPosts(ctx, term, *page, *limit)
		if err != nil {
			return errors.New(api.Message(err, "Search failed"))
		}
		return writeJSON(a.out, posts)

	case "get":
		id := fs.Int64("id", 0, "Post id")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		if _, err := a.enter(router.PostDetail); err != nil {
			return err
		}
		post, err := a.client.GetPost(ctx, *id)
		if err != nil {
			return errors.New(api.Message(err, "Could not load post"))
		}
		return writeJSON(a.out, post)

	case "create":
		title := fs.String("title", "", "Post title")
		content := fs.String("content", "", "Post content")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		if ok, err := a.enter(router.CreatePost); !ok {
			return err
		}
		if err := a.client.CreatePost(ctx, dto.PostInput{Title: *title, Content: *content}); err != nil {
			return errors.New(api.Message(err, "Could not create post"))
		}
		fmt.Fprintln(a.out, "Post created.")
		return nil

	case "update":
		id := fs.Int64("id", 0, "Post id")
		title := fs.String("title", "", "Post title")
		content := fs.String("content", "", "Post content")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		if ok, err := a.enter(router.EditPost); !ok {
			return err
		}
		if err := a.client.UpdatePost(ctx, *id, dto.PostInput{Title: *title, Content: *content}); err != nil {
			return errors.New(api.Message(err, "Could not update post"))
		}
		fmt.Fprintln(a.out, "Post updated.")
		return nil

	case "delete":
		id := fs.Int64("id", 0, "Post id")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		if ok, err := a.enter(router.EditPost); !ok {
			return err
		}
		if err := a.client.DeletePost(ctx, *id); err != nil {
			return errors.New(api.Message(err, "Could not delete post"))
		}
		fmt.Fprintln(a.out, "Post deleted.")
		return nil
	}
	return fmt.Errorf("posts: unknown subcommand %q", sub)
}

// admin walks every page of posts.
func (a *app) admin(ctx context.Context, args []string) error {
	fs := newFlagSet("admin")
	limit := fs.Int("limit", 20, "Posts per request")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if ok, err := a.enter(router.AdminDashboard); !ok {
		return err
	}

	pager := a.client.NewPostPager(dto.PostQuery{Limit: *limit})
	all := []models.Post{}
	for pager.HasMore() {
		page, err := pager.Next(ctx)
		if err != nil {
			return errors.New(api.Message(err, "Could not load posts"))
		}
		all = append(all, page...)
	}
	return writeJSON(a.out, all)
}

func (a *app) listUsers(ctx context.Context, screen router.Screen, args []string) error {
	fs := newFlagSet(strings.ToLower(string(screen)))
	page := fs.Int("page", 1, "Page number")
	limit := fs.Int("limit", 50, "Users per page")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if ok, err := a.enter(screen); !ok {
		return err
	}

	role := models.RoleStudent
	if screen == router.Teachers {
		role = models.RoleTeacher
	}
	users, err := a.client.ListUsersByRole(ctx, role, *page, *limit)
	if err != nil {
		return errors.New(api.Message(err, "Could not load users"))
	}
	return writeJSON(a.out, users)
}

func (a *app) users(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("users: expected create|update|delete")
	}
	sub, rest := args[0], args[1:]
	fs := newFlagSet("users " + sub)

	switch sub {
	case "create":
		req, roles := registerFlags(fs)
		if err := fs.Parse(rest); err != nil {
			return err
		}
		req.Roles = models.ParseRoles(*roles)
		if ok, err := a.enter(screenForRoles(req.Roles)); !ok {
			return err
		}
		created, err := a.client.CreateUser(ctx, *req)
		if err != nil {
			return errors.New(api.Message(err, "Could not create user"))
		}
		return writeJSON(a.out, created)

	case "update":
		id := fs.String("id", "", "User id")
		fs.String("name", "", "New display name")
		fs.String("username", "", "New username")
		fs.String("email", "", "New email")
		fs.String("password", "", "New password")
		fs.String("roles", "", "New comma separated roles")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		patch := userPatch(fs)
		if ok, err := a.enter(screenForRoles(patch.Roles)); !ok {
			return err
		}
		updated, err := a.client.UpdateUser(ctx, *id, patch)
		if err != nil {
			return errors.New(api.Message(err, "Could not update user"))
		}
		return writeJSON(a.out, updated)

	case "delete":
		id := fs.String("id", "", "User id")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		if ok, err := a.enter(router.AdminDashboard); !ok {
			return err
		}
		if err := a.client.DeleteUser(ctx, *id); err != nil {
			return errors.New(api.Message(err, "Could not delete user"))
		}
		fmt.Fprintln(a.out, "User deleted.")
		return nil
	}
	return fmt.Errorf("users: unknown subcommand %q", sub)
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func registerFlags(fs *flag.FlagSet) (*dto.RegisterRequest, *string) {
	req := &dto.RegisterRequest{}
	fs.StringVar(&req.Name, "name", "", "Display name")
	fs.StringVar(&req.Username, "username", "", "Username")
	fs.StringVar(&req.Email, "email", "", "Email")
	fs.StringVar(&req.Password, "password", "", "Password")
	roles := fs.String("roles", models.RoleStudent, "Comma separated roles")
	return req, roles
}

// userPatch keeps only the flags given on the command line.
func userPatch(fs *flag.FlagSet) dto.UserPatch {
	var patch dto.UserPatch
	fs.Visit(func(f *flag.Flag) {
		value := f.Value.String()
		switch f.Name {
		case "name":
			patch.Name = &value
		case "username":
			patch.Username = &value
		case "email":
			patch.Email = &value
		case "password":
			patch.Password = &value
		case "roles":
			patch.Roles = models.ParseRoles(value)
		}
	})
	return patch
}

func screenForRoles(roles models.Roles) router.Screen {
	if roles.Has(models.RoleTeacher) {
		return router.Teachers
	}
	return router.Students
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
