package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/stefanpalsson415/allietosavetheworld-sub011/internal/adapters/http/api"
	app "github.com/stefanpalsson415/allietosavetheworld-sub011/internal/app"
	"github.com/stefanpalsson415/allietosavetheworld-sub011/internal/loadgen"
)

func TestRootCommandFlags(t *testing.T) {
	convey.Convey("Given the root command", t, func() {
		cmd := newRootCommand()

		convey.Convey("Then defaults come from the load generator", func() {
			url, err := cmd.Flags().GetString("url")
			convey.So(err, convey.ShouldBeNil)
			convey.So(url, convey.ShouldEqual, loadgen.DefaultBaseURL)

			bias, err := cmd.Flags().GetFloat64("bias")
			convey.So(err, convey.ShouldBeNil)
			convey.So(bias, convey.ShouldEqual, loadgen.DefaultBias)
		})

		convey.Convey("When an invalid bias is given", func() {
			var out bytes.Buffer
			cmd.SetOut(&out)
			cmd.SetErr(&out)
			cmd.SetArgs([]string{"--bias", "2"})

			convey.Convey("Then the command fails before contacting the service", func() {
				err := cmd.ExecuteContext(context.Background())
				convey.So(errors.Is(err, loadgen.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}

func TestRootCommandRun(t *testing.T) {
	convey.Convey("Given a running service", t, func() {
		ctx := context.Background()
		svc := app.New(app.WithWorkerCount(2))
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop(ctx)

		mux := http.NewServeMux()
		api.NewServer(svc, svc).Register(ctx, mux)
		srv := httptest.NewServer(mux)
		defer srv.Close()

		convey.Convey("When the command runs a small load", func() {
			var out bytes.Buffer
			cmd := newRootCommand()
			cmd.SetOut(&out)
			cmd.SetErr(&out)
			cmd.SetArgs([]string{
				"--url", srv.URL,
				"--families", "2",
				"--events", "40",
				"--batch", "10",
				"--workers", "2",
				"--bias", "0.9",
				"--seed", "7",
				"--log-format", "json",
			})

			convey.Convey("Then it succeeds and reports statistics", func() {
				convey.So(cmd.ExecuteContext(ctx), convey.ShouldBeNil)
				convey.So(out.String(), convey.ShouldContainSubstring, "final statistics")
			})
		})
	})
}
