package server

import (
	"context"
	"fmt"
	"time"

	"connectrpc.com/connect"

	"github.com/jpamb/interpreter/jvm"
	"github.com/jpamb/interpreter/runlog"
	"github.com/jpamb/interpreter/vm"
)

// InterpretProcedure is the Connect route of the interpretation RPC.
const InterpretProcedure = "/jpamb.v1.InterpreterService/Interpret"

// InterpretRequest asks for one method to be run with concrete inputs.
// Method uses the "pkg.Class.method:(desc)ret" form and Inputs the
// parenthesized tuple form, e.g. "(10, 0)". A positive Budget overrides the
// server's step budget for this run only.
type InterpretRequest struct {
	Method string `json:"method"`
	Inputs string `json:"inputs"`
	Budget int    `json:"budget,omitempty"`
}

// InterpretResponse reports the terminal outcome of a run.
type InterpretResponse struct {
	Outcome string `json:"outcome"`
	Steps   int    `json:"steps"`
	Value   string `json:"value,omitempty"`
}

// InterpretService executes benchmark cases over Connect.
type InterpretService struct {
	loader vm.Loader
	budget int
	runs   *runlog.Store
}

// NewInterpretService creates an InterpretService over the given program
// image. The run-log store may be nil, in which case runs are not recorded.
func NewInterpretService(loader vm.Loader, budget int, runs *runlog.Store) *InterpretService {
	return &InterpretService{loader: loader, budget: budget, runs: runs}
}

// Interpret runs one case and returns its outcome token.
func (s *InterpretService) Interpret(
	ctx context.Context,
	req *connect.Request[InterpretRequest],
) (*connect.Response[InterpretResponse], error) {
	if req.Msg.Method == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("method is required"))
	}

	method, err := jvm.ParseAbsMethodID(req.Msg.Method)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	inputs, err := jvm.ParseInputs(req.Msg.Inputs)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	budget := s.budget
	if req.Msg.Budget > 0 {
		budget = req.Msg.Budget
	}
	interp := vm.New(s.loader, vm.WithBudget(budget))

	start := time.Now()
	res, err := interp.Run(method, inputs)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	elapsed := time.Since(start)

	if s.runs != nil {
		rec := &runlog.Run{
			Method:   req.Msg.Method,
			Inputs:   req.Msg.Inputs,
			Outcome:  res.Outcome.String(),
			Steps:    res.Steps,
			Duration: elapsed,
		}
		if err := s.runs.Record(rec); err != nil {
			log.Warningf("cannot record run: %v", err)
		}
	}

	resp := &InterpretResponse{
		Outcome: res.Outcome.String(),
		Steps:   res.Steps,
	}
	if res.Value != nil {
		resp.Value = res.Value.String()
	}
	return connect.NewResponse(resp), nil
}
