// Command lambda serves RenderFrame behind API Gateway.
package main

import (
	"log"

	z "clbench/pkg/lambda"

	"github.com/aws/aws-lambda-go/lambda"
)

func main() {
	log.SetPrefix("[lambda] ")
	log.SetFlags(0)

	lambda.Start(z.RenderFrame)
}
