package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"irrigation_panel/internal/macro"
	"irrigation_panel/internal/service"

	"github.com/gin-gonic/gin"
)

// macroFunc runs one macro and returns its reply body.
type macroFunc func(ctx context.Context, args []string) (string, error)

var errMacroArgs = errors.New("invalid macro arguments")

func (h *Handler) macroTable() map[string]macroFunc {
	return map[string]macroFunc{
		"getAll":        h.getAll,
		"setMode":       h.setMode,
		"setStart":      h.setStart,
		"setDay":        h.setDay,
		"setDuration":   h.setDuration,
		"switchMaster":  h.switchMaster,
		"switchChannel": h.switchChannel,
	}
}

// @Summary      Call a controller macro
// @Description  WebIOPi macro convention. Arguments are comma separated, e.g. /macros/switchChannel/3,1.
// @Description  Macros: getAll, setMode, setStart, setDay, setDuration, switchMaster, switchChannel.
// @Tags         macros
// @Produce      plain
// @Param        path  path      string  true  "Macro name and arguments"  example(setDay/0,1)
// @Success      200   {string}  string  "Macro reply"
// @Failure      400   {string}  string
// @Failure      401   {object}  map[string]string
// @Failure      404   {string}  string
// @Router       /macros/{path} [post]
// @Security     BearerAuth
func (h *Handler) callMacro(c *gin.Context) {
	reply, code := h.runMacro(c.Request.Context(), c.Param("path"))
	c.String(code, reply)
}

// runMacro dispatches "<name>[/<args>]" and returns the reply body with its
// HTTP status. Failed calls return a short message instead of the reply.
func (h *Handler) runMacro(ctx context.Context, path string) (string, int) {
	name, rest, _ := strings.Cut(strings.TrimPrefix(path, "/"), "/")
	fn, ok := h.macros[name]
	if !ok {
		return "Not Found", http.StatusNotFound
	}

	args := macro.SplitArgs(rest)
	reply, err := fn(ctx, args)
	switch {
	case errors.Is(err, errMacroArgs), errors.Is(err, service.ErrInvalidArgument):
		if h.log != nil {
			h.log.Infow("macro_bad_request", "macro", name, "args", args, "err", err)
		}
		return err.Error(), http.StatusBadRequest
	case err != nil:
		if h.log != nil {
			h.log.Errorw("macro_failed", "macro", name, "args", args, "err", err)
		}
		return "Internal Server Error", http.StatusInternalServerError
	}

	if h.log != nil {
		h.log.Debugw("macro_called", "macro", name, "args", args, "reply", reply)
	}
	return reply, http.StatusOK
}

func (h *Handler) getAll(ctx context.Context, args []string) (string, error) {
	if len(args) != 0 {
		return "", fmt.Errorf("%w: getAll takes no arguments", errMacroArgs)
	}
	b, err := json.Marshal(h.services.Snapshot())
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}
	return string(b), nil
}

func (h *Handler) setMode(ctx context.Context, args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("%w: setMode takes 1 argument, got %d", errMacroArgs, len(args))
	}
	return h.services.SetMode(ctx, args[0]), nil
}

func (h *Handler) setStart(ctx context.Context, args []string) (string, error) {
	v, err := intArgs("setStart", args, 2)
	if err != nil {
		return "", err
	}
	return h.services.SetStart(ctx, v[0], v[1])
}

func (h *Handler) setDay(ctx context.Context, args []string) (string, error) {
	v, err := intArgs("setDay", args, 2)
	if err != nil {
		return "", err
	}
	return itoa(h.services.SetDay(ctx, v[0], v[1] != 0))
}

func (h *Handler) setDuration(ctx context.Context, args []string) (string, error) {
	v, err := intArgs("setDuration", args, 2)
	if err != nil {
		return "", err
	}
	return itoa(h.services.SetDuration(ctx, v[0], v[1]))
}

func (h *Handler) switchMaster(ctx context.Context, args []string) (string, error) {
	v, err := intArgs("switchMaster", args, 1)
	if err != nil {
		return "", err
	}
	return itoa(h.services.SwitchMaster(ctx, v[0] == 1))
}

func (h *Handler) switchChannel(ctx context.Context, args []string) (string, error) {
	v, err := intArgs("switchChannel", args, 2)
	if err != nil {
		return "", err
	}
	return itoa(h.services.SwitchChannel(ctx, v[0], v[1] == 1))
}

// intArgs parses exactly n integer arguments.
func intArgs(name string, args []string, n int) ([]int, error) {
	if len(args) != n {
		return nil, fmt.Errorf("%w: %s takes %d arguments, got %d", errMacroArgs, name, n, len(args))
	}
	out := make([]int, n)
	for i, a := range args {
		v, err := strconv.Atoi(strings.TrimSpace(a))
		if err != nil {
			return nil, fmt.Errorf("%w: %s argument %d: %q is not an integer", errMacroArgs, name, i, a)
		}
		out[i] = v
	}
	return out, nil
}

func itoa(v int, err error) (string, error) {
	if err != nil {
		return "", err
	}
	return strconv.Itoa(v), nil
}
