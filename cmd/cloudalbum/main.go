package main

import (
	"errors"
	"net/http"

	"github.com/patric-chuzhbe/cloudalbum/internal/app"
	"github.com/patric-chuzhbe/cloudalbum/internal/logger"
)

func main() {
	application, err := app.New()
	if err != nil {
		panic(err)
	}
	defer application.Close()

	if err := application.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Log.Errorln("application stopped with error:", err)
	}
}
