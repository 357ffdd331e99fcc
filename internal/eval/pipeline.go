package eval

import (
	"io"
	"sync"

	"github.com/kir-gadjello/zish/internal/ast"
)

// evalPipeline creates N-1 io.Pipe connectors between N stages, runs each
// stage concurrently with its own Environment (sharing variable/function
// state by reference), waits for all to finish, and reports the last
// stage's exit code as the pipeline's: only the last stage determines the
// pipeline's status.
//
// io.Pipe cannot fail, so there is no partially-created set of pipes to
// clean up.
func evalPipeline(node *ast.Node, env *Environment) (int, error) {
	n := len(node.Children)
	envs := make([]*Environment, n)
	var readers []*io.PipeReader
	var writers []*io.PipeWriter

	prevStdin := env.Stdin
	for i := 0; i < n; i++ {
		stageEnv := env.clone()
		stageEnv.Stdin = prevStdin
		if i < n-1 {
			pr, pw := io.Pipe()
			stageEnv.Stdout = pw
			readers = append(readers, pr)
			writers = append(writers, pw)
			prevStdin = pr
		} else {
			stageEnv.Stdout = env.Stdout
		}
		envs[i] = stageEnv
	}

	codes := make([]int, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		i := i
		go func() {
			defer wg.Done()
			codes[i], errs[i] = Eval(node.Children[i], envs[i])
			if i < len(writers) {
				writers[i].Close()
			}
			if i > 0 {
				readers[i-1].Close()
			}
		}()
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return codes[n-1], err
		}
	}
	return codes[n-1], nil
}
