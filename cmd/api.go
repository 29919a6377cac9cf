package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/desertthunder/musicbox/internal/api"
	"github.com/desertthunder/musicbox/internal/shared"
	"github.com/urfave/cli/v3"
)

// APIGet makes a direct GET request, authenticated when a session exists.
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path is required", shared.ErrMissingArgument)
	}

	r.logger.Info("GET request", "path", path)

	res, err := r.client.Request(ctx, path, r.rawOpts(ctx, http.MethodGet, nil))
	if err != nil {
		return err
	}
	return r.writeResult(res, cmd.Bool("pretty"))
}

// APIPost makes a direct POST request with a JSON body.
func (r *Runner) APIPost(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	data := cmd.String("data")

	if path == "" {
		return fmt.Errorf("%w: path is required", shared.ErrMissingArgument)
	}
	if data == "" {
		return fmt.Errorf("%w: --data flag is required", shared.ErrMissingArgument)
	}

	var body any
	if err := json.Unmarshal([]byte(data), &body); err != nil {
		return fmt.Errorf("%w: data is not valid JSON: %v", shared.ErrInvalidInput, err)
	}

	r.logger.Info("POST request", "path", path)

	res, err := r.client.Request(ctx, path, r.rawOpts(ctx, http.MethodPost, body))
	if err != nil {
		return err
	}
	return r.writeResult(res, true)
}

// rawOpts attaches the persisted token, if any, without requiring one.
func (r *Runner) rawOpts(ctx context.Context, method string, body any) api.RequestOpts {
	r.loadSession(ctx)
	return api.RequestOpts{
		Method:    method,
		Body:      body,
		AuthToken: r.session.Token(),
		TokenType: r.session.TokenType(),
	}
}

func (r *Runner) writeResult(res *api.Result, pretty bool) error {
	switch {
	case res.Empty():
		return r.writePlain("(%d, empty body)\n", res.StatusCode)
	case res.JSON != nil:
		return r.writeJSON(res.JSON, pretty)
	default:
		return r.writePlain("%s\n", res.Text)
	}
}
