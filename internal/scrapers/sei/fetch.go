package sei

import (
	"bytes"
	"context"
	"fmt"
	"seiassist-backend/lib/htmlutil"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/net/html"
)

// Page is a parsed page fetched with a session token.
type Page struct {
	Path string
	Root *html.Node
}

// fetchPage requests a page of the student area with the given session token. The portal answers
// 200 even when it silently rejects a session, so a body without the redirect marker is reported
// as ErrInvalidCredentials.
func (c *Client) fetchPage(ctx context.Context, token, path string) (*Page, error) {
	ctx, span := tracer.Start(ctx, "client:fetchPage")
	defer span.End()
	span.SetAttributes(attribute.String("path", path))

	if token == "" {
		span.SetStatus(codes.Error, "empty token")
		return nil, ErrInvalidCredentials
	}

	c.tel.ReportDebug("fetch page", path)

	res, err := c.Http.R().
		SetContext(ctx).
		SetHeader("Cookie", sessionCookieHeader(token)).
		SetHeader("Referer", c.url(pathLanding)).
		Get(path)
	if err != nil {
		c.fetches.Add(ctx, 1, metric.WithAttributes(attribute.String("result", "transport")))
		c.tel.ReportBroken(report_client_fetch, fmt.Errorf("request: %w", err), path)
		span.SetStatus(codes.Error, "failed to fetch")
		return nil, err
	}
	if !res.IsSuccess() {
		c.fetches.Add(ctx, 1, metric.WithAttributes(attribute.String("result", "status")))
		span.SetStatus(codes.Error, res.Status())
		return nil, HTTPStatusError{StatusCode: res.StatusCode(), Status: res.Status()}
	}

	body := res.Body()
	if !bytes.Contains(body, []byte(redirectMarker)) {
		c.fetches.Add(ctx, 1, metric.WithAttributes(attribute.String("result", "rejected")))
		c.tel.ReportWarning(report_client_fetch, "session rejected", path)
		span.SetStatus(codes.Error, "session rejected")
		return nil, ErrInvalidCredentials
	}

	root, err := htmlutil.ParseBytes(body)
	if err != nil {
		c.fetches.Add(ctx, 1, metric.WithAttributes(attribute.String("result", "parse")))
		c.tel.ReportBroken(report_client_fetch, fmt.Errorf("parse html: %w", err), path)
		span.SetStatus(codes.Error, "failed to parse html")
		return nil, err
	}

	c.fetches.Add(ctx, 1, metric.WithAttributes(attribute.String("result", "ok")))
	return &Page{Path: path, Root: root}, nil
}
