// Package httputil provides the JSON plumbing shared by the API server and
// its client.
//
// # Server side
//
// [DecodeJSON] reads a size-limited request body and [WriteJSON] /
// [WriteError] answer with JSON. Errors carrying a code from
// [github.com/matzehuels/flowplan/pkg/errors] map to their HTTP status:
//
//	var req solveRequest
//	if err := httputil.DecodeJSON(r, &req, httputil.MaxBodyBytes); err != nil {
//	    httputil.WriteError(w, err)
//	    return
//	}
//	httputil.WriteJSON(w, http.StatusOK, resp)
//
// # Client side
//
// [DoJSON] posts a JSON body and decodes the answer. Transport failures,
// 5xx and 429 responses come back marked with [retry.Transient], so a
// [retry.Policy] retries exactly those cases:
//
//	err := retry.HTTP.Do(ctx, func() error {
//	    return httputil.DoJSON(ctx, client, http.MethodPost, url, in, &out)
//	})
package httputil
