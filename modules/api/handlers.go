package api

import (
	"github.com/gofiber/fiber/v2"
	tododomain "github.com/immeasurable-vikrant/taskFlow/domain/todo"
	"github.com/immeasurable-vikrant/taskFlow/modules/auth"
)

// Signup handles account registration and starts a session.
func (m *APIModule) Signup(c *fiber.Ctx) error {
	var req SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, msgInvalidBody)
	}
	if err := m.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	session, err := m.authAdapter.Signup(c.UserContext(), auth.SignupRequest{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		return respondError(c, err)
	}

	m.setSessionCookie(c, session.Token, session.ExpiresAt)
	return c.Status(fiber.StatusCreated).JSON(AuthResponse{
		Message: "User registered successfully",
		User:    session.User,
	})
}

// Signin verifies credentials and starts a session.
func (m *APIModule) Signin(c *fiber.Ctx) error {
	var req SigninRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, msgInvalidBody)
	}
	if err := m.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	session, err := m.authAdapter.Signin(c.UserContext(), auth.SigninRequest{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return respondError(c, err)
	}

	m.setSessionCookie(c, session.Token, session.ExpiresAt)
	return c.Status(fiber.StatusOK).JSON(AuthResponse{
		Message: "Signed in successfully",
		User:    session.User,
	})
}

// Verify reports that the session is valid. SessionMiddleware rejects invalid ones.
func (m *APIModule) Verify(c *fiber.Ctx) error {
	return c.JSON(VerifyResponse{Valid: true})
}

// Me returns the current user's profile.
func (m *APIModule) Me(c *fiber.Ctx) error {
	claims, ok := currentUser(c)
	if !ok {
		return unauthorized(c, msgAuthRequired)
	}

	profile, err := m.authAdapter.GetUser(c.UserContext(), claims.UserID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(UserResponse{User: *profile})
}

// Logout clears the session cookie. Tokens are stateless, so nothing is revoked server-side.
func (m *APIModule) Logout(c *fiber.Ctx) error {
	m.clearSessionCookie(c)
	return c.JSON(MessageResponse{Message: "Logged out successfully"})
}

// CreateTodo adds a todo for the current user.
func (m *APIModule) CreateTodo(c *fiber.Ctx) error {
	claims, ok := currentUser(c)
	if !ok {
		return unauthorized(c, msgAuthRequired)
	}

	var req CreateTodoRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, msgInvalidBody)
	}
	if err := m.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	todo, err := m.todoAdapter.Create(c.UserContext(), claims.UserID, req.Title, req.Description)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(todo)
}

// ListTodos returns a filtered, sorted page of the current user's todos.
func (m *APIModule) ListTodos(c *fiber.Ctx) error {
	claims, ok := currentUser(c)
	if !ok {
		return unauthorized(c, msgAuthRequired)
	}

	q, msg := parseListQuery(c)
	if msg != "" {
		return badRequest(c, msg)
	}
	q.OwnerID = claims.UserID

	page, err := m.todoAdapter.List(c.UserContext(), q)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(page)
}

// UpdateTodo edits the current user's todo.
func (m *APIModule) UpdateTodo(c *fiber.Ctx) error {
	claims, ok := currentUser(c)
	if !ok {
		return unauthorized(c, msgAuthRequired)
	}

	var req UpdateTodoRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, msgInvalidBody)
	}
	if err := m.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	todo, err := m.todoAdapter.Update(c.UserContext(), claims.UserID, c.Params("id"), tododomain.Changes{
		Title:       req.Title,
		Description: req.Description,
		Completed:   req.Completed,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(todo)
}

// DeleteTodo removes the current user's todo.
func (m *APIModule) DeleteTodo(c *fiber.Ctx) error {
	claims, ok := currentUser(c)
	if !ok {
		return unauthorized(c, msgAuthRequired)
	}

	id := c.Params("id")
	if err := m.todoAdapter.Delete(c.UserContext(), claims.UserID, id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(DeleteResponse{
		Message: "Task deleted successfully!",
		ID:      id,
	})
}

// parseListQuery reads the listing parameters. Malformed page and limit fall
// back to defaults; unknown enum values are reported.
func parseListQuery(c *fiber.Ctx) (tododomain.Query, string) {
	q := tododomain.Query{
		Page:   c.QueryInt("page", tododomain.DefaultPage),
		Limit:  c.QueryInt("limit", tododomain.DefaultLimit),
		Search: c.Query("search"),
	}

	status, ok := tododomain.ParseStatus(c.Query("status"))
	if !ok {
		return q, "status must be one of all, active, completed"
	}
	if c.Query("status") == "" {
		switch c.Query("completed") {
		case "":
		case "true":
			status = tododomain.StatusCompleted
		case "false":
			status = tododomain.StatusActive
		default:
			return q, "completed must be true or false"
		}
	}
	q.Status = status

	if q.SortBy, ok = tododomain.ParseSortField(c.Query("sortBy")); !ok {
		return q, "sortBy must be one of createdAt, updatedAt, title"
	}
	if q.SortOrder, ok = tododomain.ParseSortOrder(c.Query("sortOrder")); !ok {
		return q, "sortOrder must be asc or desc"
	}
	return q.Normalize(), ""
}
